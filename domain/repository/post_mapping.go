package repository

import (
	"context"

	"crossposter/domain/model"
)

// IPostMapping persists the Telegram-message → VK-post bookkeeping. Upsert
// is keyed on (telegram_message_id, user_id); republishing the same message
// updates the row instead of inserting a second one.
type IPostMapping interface {
	UpsertMapping(ctx context.Context, m *model.PostMapping) error
	GetByMessageID(ctx context.Context, messageID, userID int64) (*model.PostMapping, error)
	RecentMappings(ctx context.Context, limit int) ([]*model.PostMapping, error)
}

// IMediaItem records per-attachment metadata of published posts.
type IMediaItem interface {
	SaveMediaItem(ctx context.Context, item *model.MediaItem) (int64, error)
}

// IAudit appends crosspost outcomes to an append-only log.
type IAudit interface {
	Append(ctx context.Context, entry *model.CrosspostAudit) error
}
