package vk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossposter/domain/dto"
	"crossposter/domain/model"
	"crossposter/infrastructure/retry"
)

func noSleep(t *testing.T) {
	t.Helper()
	orig := retry.Sleep
	retry.Sleep = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { retry.Sleep = orig })
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewVKClient("5.199", 3, time.Second)
	c.baseURL = srv.URL
	return c, srv
}

func TestAttachmentToken(t *testing.T) {
	assert.Equal(t, "photo-123_456", attachmentToken("photo", -123, 456))
	assert.Equal(t, "video100_7", attachmentToken("video", 100, 7))
	assert.Equal(t, "audio-1_2", attachmentToken("audio", -1, 2))
	assert.Equal(t, "doc9_10", attachmentToken("doc", 9, 10))
}

func TestCreatePostParams(t *testing.T) {
	noSleep(t)
	var form map[string]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wall.post", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]interface{}{"post_id": 321},
		})
	}))

	target := dto.PublishTarget{AccessToken: "tok", OwnerID: -100, FromGroup: true}
	postID, err := c.CreatePost(context.Background(), target, "hello", []string{"photo-100_1", "photo-100_2"}, "https://t.me/mychannel/42")
	require.NoError(t, err)
	assert.Equal(t, int64(321), postID)
	assert.Equal(t, "-100", form["owner_id"])
	assert.Equal(t, "1", form["from_group"])
	assert.Equal(t, "hello", form["message"])
	assert.Equal(t, "photo-100_1,photo-100_2", form["attachments"])
	assert.Equal(t, "https://t.me/mychannel/42", form["copyright"])
	assert.Equal(t, "tok", form["access_token"])
	assert.Equal(t, "5.199", form["v"])
}

func TestCreatePostPersonalWall(t *testing.T) {
	noSleep(t)
	var form map[string]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]interface{}{"post_id": 1},
		})
	}))

	_, err := c.CreatePost(context.Background(), dto.PublishTarget{AccessToken: "tok", OwnerID: 100}, "hi", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "100", form["owner_id"])
	assert.Equal(t, "0", form["from_group"])
	_, hasCopyright := form["copyright"]
	assert.False(t, hasCopyright)
}

func TestCallRetriesRateLimit(t *testing.T) {
	noSleep(t)
	calls := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"error_code": 6, "error_msg": "Too many requests per second"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]interface{}{"post_id": 5},
		})
	}))

	postID, err := c.CreatePost(context.Background(), dto.PublishTarget{AccessToken: "tok", OwnerID: -1}, "x", nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), postID)
	assert.Equal(t, 3, calls)
}

func TestCallDoesNotRetryAPIError(t *testing.T) {
	noSleep(t)
	calls := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"error_code": 15, "error_msg": "Access denied"},
		})
	}))

	_, err := c.CreatePost(context.Background(), dto.PublishTarget{AccessToken: "tok", OwnerID: -1}, "x", nil, "")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "Access denied")
}

func TestUploadPhotoFlow(t *testing.T) {
	noSleep(t)
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/photos.getWallUploadServer", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "100", r.PostForm.Get("group_id"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]interface{}{"upload_url": srv.URL + "/upload"},
		})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("photo")
		require.NoError(t, err)
		assert.Equal(t, "pic.jpg", header.Filename)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"server": 99, "photo": "blob", "hash": "h",
		})
	})
	mux.HandleFunc("/photos.saveWallPhoto", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "blob", r.PostForm.Get("photo"))
		assert.Equal(t, "h", r.PostForm.Get("hash"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"response": []map[string]interface{}{{"owner_id": -100, "id": 777}},
		})
	})
	c, s := newTestClient(t, mux)
	srv = s

	path := filepath.Join(t.TempDir(), "pic.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))

	token, err := c.UploadMedia(context.Background(), dto.PublishTarget{AccessToken: "tok", OwnerID: -100}, path, model.MediaPhoto, dto.UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "photo-100_777", token)
}

func TestUploadDocFlow(t *testing.T) {
	noSleep(t)
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/docs.getWallUploadServer", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]interface{}{"upload_url": srv.URL + "/upload"},
		})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"file": "docblob"})
	})
	mux.HandleFunc("/docs.save", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "docblob", r.PostForm.Get("file"))
		assert.Equal(t, "report.pdf", r.PostForm.Get("title"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]interface{}{"type": "doc", "doc": map[string]interface{}{"owner_id": -5, "id": 6}},
		})
	})
	c, s := newTestClient(t, mux)
	srv = s

	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))

	token, err := c.UploadMedia(context.Background(), dto.PublishTarget{AccessToken: "tok", OwnerID: -5}, path, model.MediaDoc, dto.UploadOptions{FileName: "report.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "doc-5_6", token)
}

func TestUploadRetriesTransientServerFailure(t *testing.T) {
	noSleep(t)
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/photos.getWallUploadServer", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]interface{}{"upload_url": srv.URL + "/upload"},
		})
	})
	var uploadHits int
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		uploadHits++
		if uploadHits == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		// The file must arrive whole on the retry, not a resumed stream.
		file, _, err := r.FormFile("photo")
		require.NoError(t, err)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "jpeg", string(data))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"server": 99, "photo": "blob", "hash": "h",
		})
	})
	mux.HandleFunc("/photos.saveWallPhoto", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"response": []map[string]interface{}{{"owner_id": -100, "id": 777}},
		})
	})
	c, s := newTestClient(t, mux)
	srv = s

	path := filepath.Join(t.TempDir(), "pic.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))

	token, err := c.UploadMedia(context.Background(), dto.PublishTarget{AccessToken: "tok", OwnerID: -100}, path, model.MediaPhoto, dto.UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, uploadHits)
	assert.Equal(t, "photo-100_777", token)
}

func TestUploadFailureWrapped(t *testing.T) {
	noSleep(t)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"error_code": 100, "error_msg": "One of the parameters specified was missing"},
		})
	}))

	path := filepath.Join(t.TempDir(), "pic.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))

	_, err := c.UploadMedia(context.Background(), dto.PublishTarget{AccessToken: "tok", OwnerID: -1}, path, model.MediaPhoto, dto.UploadOptions{})
	require.Error(t, err)
	assert.True(t, model.IsTransferKind(err, model.TransferUploadFailed))
}

func TestGetPostAttachments(t *testing.T) {
	noSleep(t)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wall.getById", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "-100_42", r.PostForm.Get("posts"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]interface{}{
				"items": []map[string]interface{}{
					{
						"attachments": []map[string]interface{}{
							{"type": "photo", "photo": map[string]interface{}{"owner_id": -100, "id": 1}},
							{"type": "video", "video": map[string]interface{}{"owner_id": -100, "id": 2}},
						},
					},
				},
			},
		})
	}))

	tokens, err := c.GetPostAttachments(context.Background(), dto.PublishTarget{AccessToken: "tok", OwnerID: -100}, 42)
	require.NoError(t, err)
	assert.Equal(t, []string{"photo-100_1", "video-100_2"}, tokens)
}
