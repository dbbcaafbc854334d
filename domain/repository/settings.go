package repository

import (
	"context"

	"crossposter/domain/model"
)

// ISettings looks up the active crossposting configuration for a source
// channel. Returns (nil, nil) when the channel has no active link.
type ISettings interface {
	GetChannelLink(ctx context.Context, chatID int64) (*model.ChannelLink, error)
}
