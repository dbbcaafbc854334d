package persistence

import (
	"context"
	"database/sql"

	"crossposter/domain/model"
)

type ChannelRepositoryMSSQL struct{ db *sql.DB }

func NewChannelRepositoryMSSQL(db *sql.DB) *ChannelRepositoryMSSQL {
	return &ChannelRepositoryMSSQL{db: db}
}

func (r *ChannelRepositoryMSSQL) GetChannelLink(ctx context.Context, chatID int64) (*model.ChannelLink, error) {
	q := `SELECT TOP 1 s.id, tc.channel_id, COALESCE(tc.username, ''), s.user_id, vt.target_id, s.post_as_group, s.is_active, s.created_at
		  FROM telegram_channels tc
		  JOIN crosspost_settings s ON s.telegram_channel_id = tc.id
		  JOIN vk_targets vt ON vt.id = s.vk_target_id
		  WHERE tc.channel_id = @p1 AND s.is_active = 1`
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
