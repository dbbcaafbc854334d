package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crossposter/domain/dto"
	"crossposter/domain/model"
	"crossposter/domain/repository"
	"crossposter/infrastructure/filemanager"
	"crossposter/infrastructure/logger"
	"crossposter/infrastructure/utils"
)

// Outcome is the terminal state of one inbound message.
type Outcome struct {
	Status  string
	PostID  int64
	Reason  string
	Mapping *model.PostMapping
}

type ICrosspostUsecase interface {
	HandleMessage(ctx context.Context, msg model.Message) (*Outcome, error)
	HandleAlbum(ctx context.Context, msgs []model.Message) (*Outcome, error)
}

type crosspostUsecase struct {
	settings  repository.ISettings
	tokens    repository.ITokenManager
	mappings  repository.IPostMapping
	media     repository.IMediaItem
	audit     repository.IAudit // optional
	vk        repository.IVK
	telegram  repository.ITelegram
	files     *filemanager.FileManager
	broadcast func(*model.CrosspostAudit) // optional
}

func NewCrosspostUsecase(
	settings repository.ISettings,
	tokens repository.ITokenManager,
	mappings repository.IPostMapping,
	media repository.IMediaItem,
	audit repository.IAudit,
	vk repository.IVK,
	telegram repository.ITelegram,
	files *filemanager.FileManager,
	broadcast func(*model.CrosspostAudit),
) ICrosspostUsecase {
	return &crosspostUsecase{
		settings:  settings,
		tokens:    tokens,
		mappings:  mappings,
		media:     media,
		audit:     audit,
		vk:        vk,
		telegram:  telegram,
		files:     files,
		broadcast: broadcast,
	}
}

// HandleMessage routes one channel post: resolve the link, move media if
// any, publish, record the mapping. Forwards from individual accounts and
// unlinked channels are skipped before any destination call.
func (u *crosspostUsecase) HandleMessage(ctx context.Context, msg model.Message) (*Outcome, error) {
	if msg.IsUserForward() {
		logger.GetLogger().WithField("message_id", msg.MessageID).Info("Skipping message forwarded from a user")
		return &Outcome{Status: model.StatusSkipped, Reason: "forwarded from user"}, nil
	}

	link, err := u.settings.GetChannelLink(ctx, msg.ChatID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		logger.GetLogger().WithField("chat_id", msg.ChatID).Debug("Channel has no active link")
		return &Outcome{Status: model.StatusSkipped, Reason: "no active link"}, nil
	}

	cred, err := u.tokens.EnsureFresh(ctx, link.TargetID)
	if err != nil {
		u.recordOutcome(ctx, &msg, link, 0, model.StatusFailed, err.Error())
		return nil, err
	}
	target := dto.PublishTarget{AccessToken: cred.AccessToken, OwnerID: link.OwnerID(), FromGroup: link.PostAsGroup}
	sourceLink := AttributionLink(&msg)

	if msg.ContentType == model.ContentText {
		if strings.TrimSpace(msg.Text) == "" {
			return &Outcome{Status: model.StatusSkipped, Reason: "empty message"}, nil
		}
		return u.publish(ctx, &msg, link, target, msg.Text, nil, nil, sourceLink)
	}

	transferred, err := u.transferAttachment(ctx, target, &msg)
	if err != nil {
		if model.IsTransferKind(err, model.TransferOversized) {
			// The file stays on Telegram; the post degrades to text
			// pointing at the original.
			text := oversizedNotice(&msg, sourceLink)
			return u.publish(ctx, &msg, link, target, text, nil, nil, sourceLink)
		}
		u.recordOutcome(ctx, &msg, link, 0, model.StatusFailed, err.Error())
		return nil, err
	}
	return u.publish(ctx, &msg, link, target, msg.Caption, []string{transferred.attachment}, []*model.MediaItem{transferred.item}, sourceLink)
}

// HandleAlbum publishes a media group as one post. Attachments that fail
// to transfer are dropped; an album with zero surviving attachments fails.
func (u *crosspostUsecase) HandleAlbum(ctx context.Context, msgs []model.Message) (*Outcome, error) {
	if len(msgs) == 0 {
		return nil, errors.New("empty album")
	}
	head := msgs[0]
	if head.IsUserForward() {
		return &Outcome{Status: model.StatusSkipped, Reason: "forwarded from user"}, nil
	}

	link, err := u.settings.GetChannelLink(ctx, head.ChatID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return &Outcome{Status: model.StatusSkipped, Reason: "no active link"}, nil
	}

	cred, err := u.tokens.EnsureFresh(ctx, link.TargetID)
	if err != nil {
		u.recordOutcome(ctx, &head, link, 0, model.StatusFailed, err.Error())
		return nil, err
	}
	target := dto.PublishTarget{AccessToken: cred.AccessToken, OwnerID: link.OwnerID(), FromGroup: link.PostAsGroup}
	sourceLink := AttributionLink(&head)

	// The caption of an album lives on whichever part carries one.
	caption := ""
	for _, m := range msgs {
		if m.Caption != "" {
			caption = m.Caption
			break
		}
	}

	var (
		attachments []string
		items       []*model.MediaItem
	)
	for i := range msgs {
		m := &msgs[i]
		if m.Attachment == nil {
			continue
		}
		transferred, err := u.transferAttachment(ctx, target, m)
		if err != nil {
			logger.GetLogger().WithField("message_id", m.MessageID).WithField("error", err.Error()).
				Warn("Album attachment dropped")
			continue
		}
		attachments = append(attachments, transferred.attachment)
		items = append(items, transferred.item)
	}
	if len(attachments) == 0 {
		err := errors.New("no album attachment could be transferred")
		u.recordOutcome(ctx, &head, link, 0, model.StatusFailed, err.Error())
		return nil, err
	}
	return u.publish(ctx, &head, link, target, caption, attachments, items, sourceLink)
}

type transferredMedia struct {
	attachment string
	item       *model.MediaItem
}

// transferAttachment moves one file from Telegram to VK through the
// scratch directory. The scratch file is removed on every path out.
func (u *crosspostUsecase) transferAttachment(ctx context.Context, target dto.PublishTarget, msg *model.Message) (*transferredMedia, error) {
	att := msg.Attachment
	if att == nil {
		return nil, errors.New("message has no attachment")
	}
	// Declared size is checked before any bytes move; an oversized file
	// is never downloaded.
	if max := u.files.MaxSize(); max > 0 && att.FileSize > max {
		return nil, &model.TransferError{
			Kind:   model.TransferOversized,
			FileID: att.FileID,
			Err:    fmt.Errorf("declared size %d exceeds limit %d", att.FileSize, max),
		}
	}

	file, err := u.telegram.GetFile(ctx, att.FileID)
	if err != nil {
		return nil, &model.TransferError{Kind: model.TransferDownloadFailed, FileID: att.FileID, Err: err}
	}
	if max := u.files.MaxSize(); max > 0 && file.FileSize > max {
		return nil, &model.TransferError{
			Kind:   model.TransferOversized,
			FileID: att.FileID,
			Err:    fmt.Errorf("reported size %d exceeds limit %d", file.FileSize, max),
		}
	}

	name := att.FileName
	if name == "" {
		name = file.FilePath
	}
	scratch := u.files.ScratchPath(string(att.Kind), name)
	defer u.files.Cleanup(scratch)

	if err := u.telegram.DownloadFile(ctx, file.FilePath, scratch); err != nil {
		return nil, &model.TransferError{Kind: model.TransferDownloadFailed, FileID: att.FileID, Err: err}
	}
	_, checksum, err := u.files.Stat(scratch, att.Kind)
	if err != nil {
		return nil, err
	}

	token, err := u.vk.UploadMedia(ctx, target, scratch, att.Kind, dto.UploadOptions{
		FileName:  att.FileName,
		Title:     att.Title,
		Performer: att.Performer,
	})
	if err != nil {
		return nil, err
	}

	item := &model.MediaItem{
		FileID:         att.FileID,
		FileType:       string(att.Kind),
		FileSize:       att.FileSize,
		Width:          att.Width,
		Height:         att.Height,
		Duration:       att.Duration,
		VKAttachmentID: &token,
		Checksum:       checksum,
		Processed:      true,
	}
	if msg.MediaGroupID != "" {
		g := msg.MediaGroupID
		item.MediaGroupID = &g
	}
	return &transferredMedia{attachment: token, item: item}, nil
}

func (u *crosspostUsecase) publish(ctx context.Context, msg *model.Message, link *model.ChannelLink, target dto.PublishTarget, text string, attachments []string, items []*model.MediaItem, sourceLink string) (*Outcome, error) {
	postID, err := u.vk.CreatePost(ctx, target, text, attachments, sourceLink)
	if err != nil {
		u.recordOutcome(ctx, msg, link, 0, model.StatusFailed, err.Error())
		return nil, err
	}

	mapping := &model.PostMapping{
		TelegramMessageID: msg.MessageID,
		UserID:            link.UserID,
		TelegramChannelID: model.InternalChannelID(msg.ChatID),
		VKPostID:          postID,
		Status:            model.StatusPublished,
		PublishedAt:       utils.GetCurrentTime(),
	}
	if msg.MediaGroupID != "" {
		g := msg.MediaGroupID
		mapping.MediaGroupID = &g
	}
	if text != "" {
		t := text
		mapping.Content = &t
	}
	if err := u.mappings.UpsertMapping(ctx, mapping); err != nil {
		// The post exists on VK; a mapping failure must not resurface
		// as a publish failure, but later edits will not find it.
		logger.GetLogger().WithField("error", err.Error()).WithField("post_id", postID).
			Error("Failed to persist post mapping")
	}
	for _, item := range items {
		item.PostID = postID
		if _, err := u.media.SaveMediaItem(ctx, item); err != nil {
			logger.GetLogger().WithField("error", err.Error()).Warn("Failed to persist media item")
		}
	}

	u.recordOutcome(ctx, msg, link, postID, model.StatusPublished, "")
	return &Outcome{Status: model.StatusPublished, PostID: postID, Mapping: mapping}, nil
}

func (u *crosspostUsecase) recordOutcome(ctx context.Context, msg *model.Message, link *model.ChannelLink, postID int64, status, errMsg string) {
	entry := &model.CrosspostAudit{
		TelegramMessageID: msg.MessageID,
		TelegramChannelID: model.InternalChannelID(msg.ChatID),
		UserID:            link.UserID,
		VKPostID:          postID,
		MediaGroupID:      msg.MediaGroupID,
		Status:            status,
		ErrorMessage:      errMsg,
		CreatedAt:         utils.GetCurrentTime(),
	}
	if u.audit != nil {
		if err := u.audit.Append(ctx, entry); err != nil {
			logger.GetLogger().WithField("error", err.Error()).Warn("Failed to append audit entry")
		}
	}
	if u.broadcast != nil {
		u.broadcast(entry)
	}
}

// AttributionLink builds the public link back to the original message:
// t.me/{handle}/{id} for public channels, t.me/c/{bare id}/{id} otherwise.
func AttributionLink(msg *model.Message) string {
	if msg.ChatUsername != "" {
		return fmt.Sprintf("https://t.me/%s/%d", msg.ChatUsername, msg.MessageID)
	}
	return fmt.Sprintf("https://t.me/c/%d/%d", model.InternalChannelID(msg.ChatID), msg.MessageID)
}

// oversizedNotice is the text-only degradation for files too large to
// re-upload.
func oversizedNotice(msg *model.Message, sourceLink string) string {
	kind := "File"
	if msg.Attachment != nil {
		switch msg.Attachment.Kind {
		case model.MediaPhoto:
			kind = "Photo"
		case model.MediaVideo:
			kind = "Video"
		case model.MediaAudio:
			kind = "Audio"
		case model.MediaDoc:
			kind = "Document"
		}
	}
	notice := fmt.Sprintf("%s available via source link: %s", kind, sourceLink)
	if msg.Caption == "" {
		return notice
	}
	return msg.Caption + "\n\n" + notice
}
