package model

import (
	"strconv"
	"strings"
	"time"
)

// ChannelLink is the configured association between a Telegram channel and a
// VK target, created by the external linking flow. The core only reads it.
type ChannelLink struct {
	ID              int64     `json:"id"`
	ChannelID       int64     `json:"channel_id"`
	ChannelUsername string    `json:"channel_username,omitempty"`
	UserID          int64     `json:"user_id"`
	TargetID        int64     `json:"target_id"`
	PostAsGroup     bool      `json:"post_as_group"` // true = publish as the community (page), false = as the account
	Active          bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// InternalChannelID strips the -100 prefix Telegram puts on supergroup and
// channel chat ids, yielding the bare id used in storage and t.me/c links.
func InternalChannelID(chatID int64) int64 {
	s := strconv.FormatInt(chatID, 10)
	if strings.HasPrefix(s, "-100") {
		if v, err := strconv.ParseInt(s[4:], 10, 64); err == nil {
			return v
		}
	}
	if chatID < 0 {
		return -chatID
	}
	return chatID
}

// OwnerID returns the VK owner id for this link's identity mode: community
// walls use the negated id, personal walls the positive one.
func (l *ChannelLink) OwnerID() int64 {
	t := l.TargetID
	if t < 0 {
		t = -t
	}
	if l.PostAsGroup {
		return -t
	}
	return t
}
