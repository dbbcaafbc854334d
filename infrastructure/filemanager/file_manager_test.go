package filemanager

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossposter/domain/model"
)

// Minimal JPEG header so mimetype detection sees image/jpeg.
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00}

func TestScratchPathUniqueWithExtension(t *testing.T) {
	fm, err := NewFileManager(t.TempDir(), 0)
	require.NoError(t, err)

	a := fm.ScratchPath("photo", "cat.jpg")
	b := fm.ScratchPath("photo", "cat.jpg")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".jpg"))
	assert.True(t, strings.HasPrefix(filepath.Base(a), "photo_"))
}

func TestStatChecksumAndMime(t *testing.T) {
	fm, err := NewFileManager(t.TempDir(), 1<<20)
	require.NoError(t, err)

	path := filepath.Join(fm.Dir(), "sample.jpg")
	require.NoError(t, os.WriteFile(path, jpegHeader, 0o644))

	mime, sum, err := fm.Stat(path, model.MediaPhoto)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.Len(t, sum, 64)
}

func TestStatOversized(t *testing.T) {
	fm, err := NewFileManager(t.TempDir(), 4)
	require.NoError(t, err)

	path := filepath.Join(fm.Dir(), "big.bin")
	require.NoError(t, os.WriteFile(path, []byte("too large"), 0o644))

	_, _, err = fm.Stat(path, model.MediaDoc)
	require.Error(t, err)
	assert.True(t, model.IsTransferKind(err, model.TransferOversized))
}

func TestStatUnsupportedType(t *testing.T) {
	fm, err := NewFileManager(t.TempDir(), 1<<20)
	require.NoError(t, err)

	path := filepath.Join(fm.Dir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, _, err = fm.Stat(path, model.MediaPhoto)
	require.Error(t, err)
	assert.True(t, model.IsTransferKind(err, model.TransferUnsupportedType))
}

func TestStatDocumentAcceptsAnything(t *testing.T) {
	fm, err := NewFileManager(t.TempDir(), 1<<20)
	require.NoError(t, err)

	path := filepath.Join(fm.Dir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	mime, _, err := fm.Stat(path, model.MediaDoc)
	require.NoError(t, err)
	assert.Contains(t, mime, "text/plain")
}

func TestCleanupIdempotent(t *testing.T) {
	fm, err := NewFileManager(t.TempDir(), 0)
	require.NoError(t, err)

	path := filepath.Join(fm.Dir(), "gone.bin")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	fm.Cleanup(path)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	fm.Cleanup(path) // second call must not panic or log an error
	fm.Cleanup("")
}

func TestCleanupOld(t *testing.T) {
	fm, err := NewFileManager(t.TempDir(), 0)
	require.NoError(t, err)

	stale := filepath.Join(fm.Dir(), "stale.bin")
	fresh := filepath.Join(fm.Dir(), "fresh.bin")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("y"), 0o644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	removed := fm.CleanupOld(24 * time.Hour)
	assert.Equal(t, 1, removed)
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}
