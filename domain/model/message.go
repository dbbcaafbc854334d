package model

import "time"

// MediaKind matches the VK attachment namespaces.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
	MediaDoc   MediaKind = "doc"
)

// ContentType classifies an inbound Telegram message for dispatch.
type ContentType string

const (
	ContentText      ContentType = "text"
	ContentPhoto     ContentType = "photo"
	ContentVideo     ContentType = "video"
	ContentVideoNote ContentType = "video_note"
	ContentDocument  ContentType = "document"
	ContentAudio     ContentType = "audio"
)

// Attachment describes the media payload of a message as reported by the
// source platform, before any transfer happens.
type Attachment struct {
	FileID    string    `json:"file_id"`
	Kind      MediaKind `json:"kind"`
	FileName  string    `json:"file_name,omitempty"`
	FileSize  int64     `json:"file_size"`
	MIMEType  string    `json:"mime_type,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	Duration  int       `json:"duration,omitempty"`
	Performer string    `json:"performer,omitempty"` // audio only
	Title     string    `json:"title,omitempty"`     // audio only
}

// Message is the platform-neutral view of an inbound channel post or edit.
type Message struct {
	MessageID       int64       `json:"message_id"`
	ChatID          int64       `json:"chat_id"`
	ChatUsername    string      `json:"chat_username,omitempty"`
	Date            time.Time   `json:"date"`
	Text            string      `json:"text,omitempty"`
	Caption         string      `json:"caption,omitempty"`
	MediaGroupID    string      `json:"media_group_id,omitempty"`
	ForwardFromUser bool        `json:"forward_from_user,omitempty"`
	ForwardFromChat bool        `json:"forward_from_chat,omitempty"`
	Edited          bool        `json:"edited,omitempty"`
	ContentType     ContentType `json:"content_type"`
	Attachment      *Attachment `json:"attachment,omitempty"`
}

// Body returns the text to publish: plain text for text messages, the
// caption otherwise. Never nil semantics, empty string is fine.
func (m *Message) Body() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// IsUserForward reports whether the message was forwarded from an individual
// account. Channel-forwarded content stays eligible.
func (m *Message) IsUserForward() bool {
	return m.ForwardFromUser && !m.ForwardFromChat
}
