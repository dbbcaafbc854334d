package model

import "time"

// Crosspost outcome statuses.
const (
	StatusPublished = "published"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// PostMapping links a Telegram message to the VK post it produced. One row
// per (telegram_message_id, user_id); republishing updates it in place.
type PostMapping struct {
	ID                int64     `json:"id"`
	TelegramMessageID int64     `json:"telegram_message_id"`
	UserID            int64     `json:"user_id"`
	TelegramChannelID int64     `json:"telegram_channel_id,omitempty"`
	VKPostID          int64     `json:"vk_post_id"`
	MediaGroupID      *string   `json:"media_group_id,omitempty"`
	Content           *string   `json:"content,omitempty"`
	Status            string    `json:"status"` // published
	PublishedAt       time.Time `json:"published_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// MediaItem records one processed attachment of a published post.
type MediaItem struct {
	ID             int64     `json:"id"`
	PostID         int64     `json:"post_id"`
	FileID         string    `json:"file_id"`
	FileType       string    `json:"file_type"`
	FileSize       int64     `json:"file_size"`
	Width          int       `json:"width,omitempty"`
	Height         int       `json:"height,omitempty"`
	Duration       int       `json:"duration,omitempty"`
	MediaGroupID   *string   `json:"media_group_id,omitempty"`
	VKAttachmentID *string   `json:"vk_attachment_id,omitempty"`
	Checksum       string    `json:"checksum,omitempty"`
	Processed      bool      `json:"processed"`
	CreatedAt      time.Time `json:"created_at"`
}

// CrosspostAudit is an append-only log entry of one crosspost outcome.
type CrosspostAudit struct {
	TelegramMessageID int64     `bson:"telegram_message_id" json:"telegram_message_id"`
	TelegramChannelID int64     `bson:"telegram_channel_id" json:"telegram_channel_id"`
	UserID            int64     `bson:"user_id" json:"user_id"`
	VKPostID          int64     `bson:"vk_post_id,omitempty" json:"vk_post_id,omitempty"`
	MediaGroupID      string    `bson:"media_group_id,omitempty" json:"media_group_id,omitempty"`
	Status            string    `bson:"status" json:"status"` // published | failed | skipped
	ErrorMessage      string    `bson:"error_message,omitempty" json:"error_message,omitempty"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
}
