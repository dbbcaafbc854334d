package usecase

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"crossposter/domain/dto"
	"crossposter/domain/model"
	"crossposter/domain/repository"
	"crossposter/infrastructure/logger"
	"crossposter/infrastructure/retry"
)

const (
	editAttempts  = 3
	editBaseDelay = time.Second
)

type IEditUsecase interface {
	PropagateEdit(ctx context.Context, msg model.Message) error
}

type editUsecase struct {
	settings repository.ISettings
	tokens   repository.ITokenManager
	mappings repository.IPostMapping
	vk       repository.IVK
}

func NewEditUsecase(
	settings repository.ISettings,
	tokens repository.ITokenManager,
	mappings repository.IPostMapping,
	vk repository.IVK,
) IEditUsecase {
	return &editUsecase{settings: settings, tokens: tokens, mappings: mappings, vk: vk}
}

// PropagateEdit rewrites the VK post that mirrors an edited Telegram
// message. Attachments are read back from the existing post and carried
// over unchanged; only the text is replaced.
func (u *editUsecase) PropagateEdit(ctx context.Context, msg model.Message) error {
	link, err := u.settings.GetChannelLink(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	if link == nil {
		logger.GetLogger().WithField("chat_id", msg.ChatID).Debug("Edit in channel with no active link")
		return nil
	}

	mapping, err := u.mappings.GetByMessageID(ctx, msg.MessageID, link.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.EditError{Kind: model.EditMappingNotFound, MessageID: msg.MessageID, Err: err}
		}
		return err
	}
	if mapping == nil {
		return &model.EditError{Kind: model.EditMappingNotFound, MessageID: msg.MessageID, Err: errors.New("no mapping recorded")}
	}

	cred, err := u.tokens.EnsureFresh(ctx, link.TargetID)
	if err != nil {
		return err
	}
	target := dto.PublishTarget{AccessToken: cred.AccessToken, OwnerID: link.OwnerID(), FromGroup: link.PostAsGroup}

	text := msg.Body()
	sourceLink := AttributionLink(&msg)
	// Fetch and edit retry as one unit so a post changed between the two
	// calls is re-read on the next attempt.
	err = retry.Do(ctx, editAttempts, editBaseDelay, func() error {
		attachments, err := u.vk.GetPostAttachments(ctx, target, mapping.VKPostID)
		if err != nil {
			return err
		}
		return u.vk.EditPost(ctx, target, mapping.VKPostID, text, attachments, sourceLink)
	})
	if err != nil {
		return &model.EditError{Kind: model.EditFailed, MessageID: msg.MessageID, Err: err}
	}

	mapping.Content = &text
	mapping.Status = model.StatusPublished
	if err := u.mappings.UpsertMapping(ctx, mapping); err != nil {
		logger.GetLogger().WithField("error", err.Error()).Warn("Failed to update mapping after edit")
	}
	logger.GetLogger().WithField("message_id", msg.MessageID).WithField("post_id", mapping.VKPostID).
		Info("Edit propagated")
	return nil
}
