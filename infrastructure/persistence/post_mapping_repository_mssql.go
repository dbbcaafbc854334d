package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crossposter/domain/model"
)

type PostMappingRepositoryMSSQL struct{ db *sql.DB }

func NewPostMappingRepositoryMSSQL(db *sql.DB) *PostMappingRepositoryMSSQL {
	return &PostMappingRepositoryMSSQL{db: db}
}

// EnsurePostMappingSchemaMSSQL creates the post_mappings and media_items
// tables for SQL Server if they do not exist.
func EnsurePostMappingSchemaMSSQL(db *sql.DB) error {
	ddls := []string{
		`IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.post_mappings') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[post_mappings] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        telegram_message_id BIGINT NOT NULL,
        user_id BIGINT NOT NULL,
        telegram_channel_id BIGINT NULL,
        vk_post_id BIGINT NOT NULL,
        media_group_id NVARCHAR(128) NULL,
        content NVARCHAR(MAX) NULL,
        status NVARCHAR(32) NOT NULL DEFAULT 'published',
        published_at DATETIME2 NOT NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
    CREATE UNIQUE INDEX UX_post_mappings_message_user ON dbo.[post_mappings](telegram_message_id, user_id);
END`,
		`IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.media_items') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[media_items] (
        id BIGINT IDENTITY(1,1) PRIMARY KEY,
        post_id BIGINT NOT NULL,
        file_id NVARCHAR(256) NOT NULL,
        file_type NVARCHAR(32) NOT NULL,
        file_size BIGINT NOT NULL DEFAULT 0,
        width INT NULL,
        height INT NULL,
        duration INT NULL,
        media_group_id NVARCHAR(128) NULL,
        vk_attachment_id NVARCHAR(128) NULL,
        checksum NVARCHAR(64) NULL,
        processed BIT NOT NULL DEFAULT 0,
        created_at DATETIME2 NOT NULL
    );
END`,
	}
	for _, ddl := range ddls {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("create crosspost tables (mssql): %w", err)
		}
	}
	return nil
}

func (r *PostMappingRepositoryMSSQL) UpsertMapping(ctx context.Context, m *model.PostMapping) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if m.Status == "" {
		m.Status = "published"
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE post_mappings SET telegram_channel_id=@p3, vk_post_id=@p4, media_group_id=@p5, content=@p6, status=@p7, published_at=@p8, updated_at=@p9
		 WHERE telegram_message_id=@p1 AND user_id=@p2`,
		m.TelegramMessageID, m.UserID, m.TelegramChannelID, m.VKPostID, m.MediaGroupID, m.Content, m.Status, m.PublishedAt, m.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO post_mappings (telegram_message_id, user_id, telegram_channel_id, vk_post_id, media_group_id, content, status, published_at, created_at, updated_at)
		 VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10)`,
		m.TelegramMessageID, m.UserID, m.TelegramChannelID, m.VKPostID, m.MediaGroupID, m.Content, m.Status, m.PublishedAt, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *PostMappingRepositoryMSSQL) GetByMessageID(ctx context.Context, messageID, userID int64) (*model.PostMapping, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, telegram_message_id, user_id, telegram_channel_id, vk_post_id, media_group_id, content, status, published_at, created_at, updated_at
		 FROM post_mappings WHERE telegram_message_id=@p1 AND user_id=@p2`,
		messageID, userID)
	return scanMapping(row)
}

func (r *PostMappingRepositoryMSSQL) RecentMappings(ctx context.Context, limit int) ([]*model.PostMapping, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT TOP (@p1) id, telegram_message_id, user_id, telegram_channel_id, vk_post_id, media_group_id, content, status, published_at, created_at, updated_at
		 FROM post_mappings ORDER BY updated_at DESC`,
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

type MediaItemRepositoryMSSQL struct{ db *sql.DB }

func NewMediaItemRepositoryMSSQL(db *sql.DB) *MediaItemRepositoryMSSQL {
	return &MediaItemRepositoryMSSQL{db: db}
}

func (r *MediaItemRepositoryMSSQL) SaveMediaItem(ctx context.Context, item *model.MediaItem) (int64, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO media_items (post_id, file_id, file_type, file_size, width, height, duration, media_group_id, vk_attachment_id, checksum, processed, created_at)
		 OUTPUT INSERTED.id
		 VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10,@p11,@p12)`,
		item.PostID, item.FileID, item.FileType, item.FileSize, item.Width, item.Height, item.Duration,
		item.MediaGroupID, item.VKAttachmentID, item.Checksum, item.Processed, item.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	item.ID = id
	return id, nil
}
