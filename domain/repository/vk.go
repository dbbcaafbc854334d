package repository

import (
	"context"

	"crossposter/domain/dto"
	"crossposter/domain/model"
)

// IVK is the destination-wall capability: upload media, create/edit/read
// posts. Implementations must be safe for concurrent use; all per-operation
// identity travels in the PublishTarget.
type IVK interface {
	// UploadMedia uploads a local file and returns the destination-native
	// attachment token (photo{owner}_{id}, video…, audio…, doc…).
	UploadMedia(ctx context.Context, target dto.PublishTarget, path string, kind model.MediaKind, opts dto.UploadOptions) (string, error)
	// CreatePost publishes a wall post and returns the new post id.
	CreatePost(ctx context.Context, target dto.PublishTarget, text string, attachments []string, sourceLink string) (int64, error)
	// EditPost rewrites an existing post's text, attachments and source link.
	EditPost(ctx context.Context, target dto.PublishTarget, postID int64, text string, attachments []string, sourceLink string) error
	// GetPostAttachments reads an existing post and returns its attachment
	// tokens, so edits can preserve them.
	GetPostAttachments(ctx context.Context, target dto.PublishTarget, postID int64) ([]string, error)
}

// ITelegram is the source-platform capability: resolve file metadata and
// download file bytes.
type ITelegram interface {
	GetChat(ctx context.Context, chatID int64) (*dto.ChatInfo, error)
	GetFile(ctx context.Context, fileID string) (*dto.TelegramFile, error)
	DownloadFile(ctx context.Context, filePath, destination string) error
}
