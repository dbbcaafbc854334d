package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureCrosspostSchema creates the crossposting tables on PostgreSQL if
// they do not exist. Safe to call at startup.
func EnsureCrosspostSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ddls := []string{
		`CREATE TABLE IF NOT EXISTS telegram_channels (
			id BIGSERIAL PRIMARY KEY,
			channel_id BIGINT NOT NULL UNIQUE,
			username TEXT,
			title TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS vk_targets (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			target_id BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS crosspost_settings (
			id BIGSERIAL PRIMARY KEY,
			telegram_channel_id BIGINT NOT NULL REFERENCES telegram_channels(id),
			vk_target_id BIGINT NOT NULL REFERENCES vk_targets(id),
			user_id BIGINT NOT NULL,
			post_as_group BOOLEAN NOT NULL DEFAULT TRUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS vk_credentials (
			target_id BIGINT PRIMARY KEY,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS post_mappings (
			id BIGSERIAL PRIMARY KEY,
			telegram_message_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			telegram_channel_id BIGINT,
			vk_post_id BIGINT NOT NULL,
			media_group_id TEXT,
			content TEXT,
			status TEXT NOT NULL DEFAULT 'published',
			published_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (telegram_message_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS media_items (
			id BIGSERIAL PRIMARY KEY,
			post_id BIGINT NOT NULL,
			file_id TEXT NOT NULL,
			file_type TEXT NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			width INT,
			height INT,
			duration INT,
			media_group_id TEXT,
			vk_attachment_id TEXT,
			checksum TEXT,
			processed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_post_mappings_updated_at ON post_mappings(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS ix_media_items_post_id ON media_items(post_id)`,
	}

	for _, ddl := range ddls {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure crosspost schema: %w", err)
		}
	}
	return nil
}
