package persistence

import (
	"context"
	"database/sql"

	"crossposter/domain/model"
)

type ChannelRepository struct{ db *sql.DB }

func NewChannelRepository(db *sql.DB) *ChannelRepository { return &ChannelRepository{db: db} }

// GetChannelLink resolves the active crosspost configuration for a source
// chat. Chat ids arrive with Telegram's -100 prefix; storage keeps the bare
// id. Returns (nil, nil) when the channel has no active link.
func (r *ChannelRepository) GetChannelLink(ctx context.Context, chatID int64) (*model.ChannelLink, error) {
	q := `SELECT s.id, tc.channel_id, COALESCE(tc.username, ''), s.user_id, vt.target_id, s.post_as_group, s.is_active, s.created_at
		  FROM telegram_channels tc
		  JOIN crosspost_settings s ON s.telegram_channel_id = tc.id
		  JOIN vk_targets vt ON vt.id = s.vk_target_id
		  WHERE tc.channel_id = $1 AND s.is_active = TRUE
		  LIMIT 1`
	row := r.db.QueryRowContext(ctx, q, model.InternalChannelID(chatID))

	link := &model.ChannelLink{}
	err := row.Scan(&link.ID, &link.ChannelID, &link.ChannelUsername, &link.UserID, &link.TargetID, &link.PostAsGroup, &link.Active, &link.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}
