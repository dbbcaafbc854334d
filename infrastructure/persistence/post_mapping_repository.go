package persistence

import (
	"context"
	"database/sql"
	"time"

	"crossposter/domain/model"
)

type PostMappingRepository struct{ db *sql.DB }

func NewPostMappingRepository(db *sql.DB) *PostMappingRepository {
	return &PostMappingRepository{db: db}
}

// UpsertMapping writes the message→post row. The (telegram_message_id,
// user_id) key makes republishing idempotent: the second write updates the
// row instead of inserting a duplicate.
func (r *PostMappingRepository) UpsertMapping(ctx context.Context, m *model.PostMapping) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if m.Status == "" {
		m.Status = "published"
	}
	q := `INSERT INTO post_mappings (telegram_message_id, user_id, telegram_channel_id, vk_post_id, media_group_id, content, status, published_at, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		  ON CONFLICT (telegram_message_id, user_id) DO UPDATE SET
			telegram_channel_id=EXCLUDED.telegram_channel_id,
			vk_post_id=EXCLUDED.vk_post_id,
			media_group_id=EXCLUDED.media_group_id,
			content=EXCLUDED.content,
			status=EXCLUDED.status,
			published_at=EXCLUDED.published_at,
			updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q,
		m.TelegramMessageID, m.UserID, m.TelegramChannelID, m.VKPostID,
		m.MediaGroupID, m.Content, m.Status, m.PublishedAt, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *PostMappingRepository) GetByMessageID(ctx context.Context, messageID, userID int64) (*model.PostMapping, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, telegram_message_id, user_id, telegram_channel_id, vk_post_id, media_group_id, content, status, published_at, created_at, updated_at
		 FROM post_mappings WHERE telegram_message_id=$1 AND user_id=$2`,
		messageID, userID)
	return scanMapping(row)
}

func (r *PostMappingRepository) RecentMappings(ctx context.Context, limit int) ([]*model.PostMapping, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, telegram_message_id, user_id, telegram_channel_id, vk_post_id, media_group_id, content, status, published_at, created_at, updated_at
		 FROM post_mappings ORDER BY updated_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PostMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMapping(row rowScanner) (*model.PostMapping, error) {
	m := &model.PostMapping{}
	var channelID sql.NullInt64
	var mediaGroup, content sql.NullString
	err := row.Scan(&m.ID, &m.TelegramMessageID, &m.UserID, &channelID, &m.VKPostID, &mediaGroup, &content, &m.Status, &m.PublishedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if channelID.Valid {
		m.TelegramChannelID = channelID.Int64
	}
	if mediaGroup.Valid {
		v := mediaGroup.String
		m.MediaGroupID = &v
	}
	if content.Valid {
		v := content.String
		m.Content = &v
	}
	return m, nil
}

type MediaItemRepository struct{ db *sql.DB }

func NewMediaItemRepository(db *sql.DB) *MediaItemRepository {
	return &MediaItemRepository{db: db}
}

func (r *MediaItemRepository) SaveMediaItem(ctx context.Context, item *model.MediaItem) (int64, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO media_items (post_id, file_id, file_type, file_size, width, height, duration, media_group_id, vk_attachment_id, checksum, processed, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id`,
		item.PostID, item.FileID, item.FileType, item.FileSize, item.Width, item.Height, item.Duration,
		item.MediaGroupID, item.VKAttachmentID, item.Checksum, item.Processed, item.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	item.ID = id
	return id, nil
}
