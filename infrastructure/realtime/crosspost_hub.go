package realtime

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"crossposter/domain/model"
)

// CrosspostStatusEvent represents an SSE payload for crosspost outcome updates.
type CrosspostStatusEvent struct {
	Type              string `json:"type"`
	TelegramMessageID int64  `json:"telegram_message_id"`
	TelegramChannelID int64  `json:"telegram_channel_id"`
	VKPostID          int64  `json:"vk_post_id,omitempty"`
	Status            string `json:"status"`
	Error             string `json:"error,omitempty"`
}

// Hub maintains per-user subscribers listening for crosspost status events.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[chan CrosspostStatusEvent]struct{}
}

func NewCrosspostHub() *Hub {
	return &Hub{users: make(map[string]map[chan CrosspostStatusEvent]struct{})}
}

// Serve registers an SSE stream for the authenticated user (user_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan CrosspostStatusEvent, 8)
	h.addSubscriber(userID, ch)
	defer h.removeSubscriber(userID, ch)

	// Initial comment to keep connection open
	c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	notify := c.Writer.CloseNotify()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: crosspost_status\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Hub) addSubscriber(userID string, ch chan CrosspostStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan CrosspostStatusEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
}

func (h *Hub) removeSubscriber(userID string, ch chan CrosspostStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[userID]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}

// BroadcastOutcome broadcasts an audit entry to all subscribers of the user
// who owns the channel link.
func (h *Hub) BroadcastOutcome(entry *model.CrosspostAudit) {
	if entry == nil {
		return
	}
	evt := CrosspostStatusEvent{
		Type:              "crosspost_status",
		TelegramMessageID: entry.TelegramMessageID,
		TelegramChannelID: entry.TelegramChannelID,
		VKPostID:          entry.VKPostID,
		Status:            entry.Status,
		Error:             entry.ErrorMessage,
	}
	h.mu.RLock()
	subs := h.users[strconv.FormatInt(entry.UserID, 10)]
	for ch := range subs {
		select { // non-blocking
		case ch <- evt:
		default:
		}
	}
	h.mu.RUnlock()
}
