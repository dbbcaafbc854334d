package persistence

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"crossposter/infrastructure/logger"
)

// FileMappingStore is the last-resort message→post mapping used when no
// database is reachable. One "{message_id}:{post_id}" line per mapping,
// newest line wins on lookup.
type FileMappingStore struct {
	mu   sync.Mutex
	path string
}

func NewFileMappingStore(path string) *FileMappingStore {
	return &FileMappingStore{path: path}
}

func (s *FileMappingStore) Save(messageID, postID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open mapping file: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%d:%d\n", messageID, postID); err != nil {
		return fmt.Errorf("append mapping: %w", err)
	}
	return nil
}

// Lookup returns the VK post id for a message, or (0, false) when the
// message was never recorded.
func (s *FileMappingStore) Lookup(messageID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.GetLogger().WithField("error", err.Error()).Warn("Failed to open mapping file")
		}
		return 0, false
	}
	defer f.Close()

	var (
		postID int64
		found  bool
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		mid, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || mid != messageID {
			continue
		}
		pid, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		postID = pid
		found = true
	}
	return postID, found
}
