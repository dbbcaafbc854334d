package telegram

import (
	"sync"
	"time"

	"crossposter/domain/model"
)

// DefaultAlbumQuietPeriod is how long an album buffer waits after the
// last item before it is considered complete. Telegram delivers album
// parts as separate updates with a shared media_group_id.
const DefaultAlbumQuietPeriod = 2 * time.Second

type albumEntry struct {
	messages []model.Message
	lastSeen time.Time
}

// AlbumBuffer groups messages sharing a media_group_id and releases the
// group once no new part has arrived for the quiet period.
type AlbumBuffer struct {
	mu     sync.Mutex
	quiet  time.Duration
	groups map[string]*albumEntry
	now    func() time.Time
}

func NewAlbumBuffer(quiet time.Duration) *AlbumBuffer {
	if quiet <= 0 {
		quiet = DefaultAlbumQuietPeriod
	}
	return &AlbumBuffer{
		quiet:  quiet,
		groups: make(map[string]*albumEntry),
		now:    time.Now,
	}
}

// Add buffers a message belonging to an album. Messages without a
// media_group_id are not buffered and should be dispatched directly.
func (b *AlbumBuffer) Add(msg model.Message) {
	if msg.MediaGroupID == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := msg.MediaGroupID
	entry, ok := b.groups[id]
	if !ok {
		entry = &albumEntry{}
		b.groups[id] = entry
	}
	entry.messages = append(entry.messages, msg)
	entry.lastSeen = b.now()
}

// Flush returns every album whose quiet period has elapsed, in arrival
// order within each group, and removes them from the buffer.
func (b *AlbumBuffer) Flush() [][]model.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	cutoff := b.now().Add(-b.quiet)
	var ready [][]model.Message
	for id, entry := range b.groups {
		if entry.lastSeen.Before(cutoff) || entry.lastSeen.Equal(cutoff) {
			ready = append(ready, entry.messages)
			delete(b.groups, id)
		}
	}
	return ready
}

// Pending reports how many albums are still buffered.
func (b *AlbumBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.groups)
}
