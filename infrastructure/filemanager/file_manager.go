package filemanager

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"crossposter/domain/model"
	"crossposter/infrastructure/logger"
)

var allowedMIME = map[model.MediaKind][]string{
	model.MediaPhoto: {"image/jpeg", "image/png", "image/webp"},
	model.MediaVideo: {"video/mp4", "video/quicktime", "video/webm"},
	model.MediaAudio: {"audio/mpeg", "audio/mp4", "audio/ogg", "audio/flac"},
	model.MediaDoc:   nil, // documents accept anything
}

// FileManager owns the scratch directory used for media in flight
// between Telegram and VK.
type FileManager struct {
	dir     string
	maxSize int64
}

func NewFileManager(dir string, maxSize int64) (*FileManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", dir, err)
	}
	return &FileManager{dir: dir, maxSize: maxSize}, nil
}

func (f *FileManager) Dir() string { return f.dir }

// MaxSize is the largest file the manager will accept, in bytes.
func (f *FileManager) MaxSize() int64 { return f.maxSize }

// ScratchPath returns a unique destination path for a download. The
// original extension is kept so uploads carry a meaningful file name.
func (f *FileManager) ScratchPath(prefix, originalName string) string {
	ext := filepath.Ext(originalName)
	name := fmt.Sprintf("%s_%s%s", prefix, uuid.New().String(), ext)
	return filepath.Join(f.dir, name)
}

// Stat verifies a downloaded file: size against the configured limit,
// content type against the per-kind allow-list. It returns the detected
// MIME type and the SHA-256 checksum of the content.
func (f *FileManager) Stat(path string, kind model.MediaKind) (string, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", "", err
	}
	if f.maxSize > 0 && info.Size() > f.maxSize {
		return "", "", &model.TransferError{
			Kind: model.TransferOversized,
			Err:  fmt.Errorf("file is %d bytes, limit %d", info.Size(), f.maxSize),
		}
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", fmt.Errorf("detect mime type: %w", err)
	}
	detected := mtype.String()
	if idx := strings.Index(detected, ";"); idx != -1 {
		detected = detected[:idx]
	}
	if allowed := allowedMIME[kind]; allowed != nil {
		ok := false
		for _, m := range allowed {
			if detected == m {
				ok = true
				break
			}
		}
		if !ok {
			return "", "", &model.TransferError{
				Kind: model.TransferUnsupportedType,
				Err:  fmt.Errorf("type %s not allowed for %s", detected, kind),
			}
		}
	}
	sum, err := checksumFile(path)
	if err != nil {
		return "", "", err
	}
	return detected, sum, nil
}

// Cleanup removes a scratch file. Safe to call on paths that are
// already gone.
func (f *FileManager) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.GetLogger().WithField("path", path).WithField("error", err.Error()).
			Warn("Failed to remove scratch file")
	}
}

// CleanupOld removes scratch files older than maxAge. Called once on
// startup to sweep leftovers from a previous run.
func (f *FileManager) CleanupOld(maxAge time.Duration) int {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		logger.GetLogger().WithField("error", err.Error()).Warn("Failed to read scratch dir")
		return 0
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(f.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		logger.GetLogger().WithField("removed", removed).Info("Swept old scratch files")
	}
	return removed
}

func checksumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
