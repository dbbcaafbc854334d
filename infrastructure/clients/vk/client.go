package vk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"crossposter/domain/dto"
	"crossposter/domain/model"
	"crossposter/domain/repository"
	"crossposter/infrastructure/logger"
	"crossposter/infrastructure/retry"
)

const (
	apiBaseURL = "https://api.vk.com/method"

	// vkErrTooManyRequests is the only API error worth retrying.
	vkErrTooManyRequests = 6
)

// Client talks to the VK API. It keeps no per-target state; tokens and
// owner ids arrive with every call in the PublishTarget.
type Client struct {
	apiVersion string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	baseURL    string
}

func NewVKClient(apiVersion string, maxRetries int, retryDelay time.Duration) *Client {
	return &Client{
		apiVersion: apiVersion,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    apiBaseURL,
	}
}

type apiError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

type apiEnvelope struct {
	Error    *apiError       `json:"error"`
	Response json.RawMessage `json:"response"`
}

// call POSTs a VK API method as form data and decodes the response
// envelope. Transport failures and rate limiting are retried with
// exponential backoff; other API errors come back immediately.
func (c *Client) call(ctx context.Context, token, method string, params url.Values, out interface{}) error {
	params.Set("access_token", token)
	params.Set("v", c.apiVersion)
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, method)

	return retry.Do(ctx, c.maxRetries, c.retryDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("vk %s: %w", method, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("vk %s: status %d", method, resp.StatusCode)
		}

		var envelope apiEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return fmt.Errorf("vk %s: decode response: %w", method, err)
		}
		if envelope.Error != nil {
			if envelope.Error.Code == vkErrTooManyRequests {
				return envelope.Error
			}
			return retry.Permanent(envelope.Error)
		}
		if out != nil {
			if err := json.Unmarshal(envelope.Response, out); err != nil {
				return retry.Permanent(fmt.Errorf("vk %s: decode result: %w", method, err))
			}
		}
		return nil
	})
}

// CreatePost publishes a wall post and returns the post id. The source
// link travels in the copyright field, separate from the message text.
func (c *Client) CreatePost(ctx context.Context, target dto.PublishTarget, text string, attachments []string, sourceLink string) (int64, error) {
	req := dto.WallPostRequest{
		OwnerID:     target.OwnerID,
		Message:     text,
		Attachments: strings.Join(attachments, ","),
		Copyright:   sourceLink,
	}
	if target.FromGroup {
		req.FromGroup = 1
	}
	params, err := query.Values(req)
	if err != nil {
		return 0, err
	}

	var result struct {
		PostID int64 `json:"post_id"`
	}
	if err := c.call(ctx, target.AccessToken, "wall.post", params, &result); err != nil {
		return 0, &model.PublishError{Err: err}
	}
	logger.GetLogger().WithField("owner_id", target.OwnerID).WithField("post_id", result.PostID).
		Info("Wall post created")
	return result.PostID, nil
}

// EditPost rewrites an existing post.
func (c *Client) EditPost(ctx context.Context, target dto.PublishTarget, postID int64, text string, attachments []string, sourceLink string) error {
	req := dto.WallEditRequest{
		OwnerID:     target.OwnerID,
		PostID:      postID,
		Message:     text,
		Attachments: strings.Join(attachments, ","),
		Copyright:   sourceLink,
	}
	params, err := query.Values(req)
	if err != nil {
		return err
	}
	if err := c.call(ctx, target.AccessToken, "wall.edit", params, nil); err != nil {
		return &model.PublishError{Err: err}
	}
	return nil
}

// GetPostAttachments reads a post and returns its attachment tokens so an
// edit can carry them over unchanged.
func (c *Client) GetPostAttachments(ctx context.Context, target dto.PublishTarget, postID int64) ([]string, error) {
	params := url.Values{}
	params.Set("posts", fmt.Sprintf("%d_%d", target.OwnerID, postID))

	var result struct {
		Items []struct {
			Attachments []struct {
				Type  string `json:"type"`
				Photo *struct {
					OwnerID int64 `json:"owner_id"`
					ID      int64 `json:"id"`
				} `json:"photo"`
				Video *struct {
					OwnerID int64 `json:"owner_id"`
					ID      int64 `json:"id"`
				} `json:"video"`
				Audio *struct {
					OwnerID int64 `json:"owner_id"`
					ID      int64 `json:"id"`
				} `json:"audio"`
				Doc *struct {
					OwnerID int64 `json:"owner_id"`
					ID      int64 `json:"id"`
				} `json:"doc"`
			} `json:"attachments"`
		} `json:"items"`
	}
	if err := c.call(ctx, target.AccessToken, "wall.getById", params, &result); err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, fmt.Errorf("post %d_%d not found", target.OwnerID, postID)
	}

	var tokens []string
	for _, a := range result.Items[0].Attachments {
		switch {
		case a.Photo != nil:
			tokens = append(tokens, attachmentToken("photo", a.Photo.OwnerID, a.Photo.ID))
		case a.Video != nil:
			tokens = append(tokens, attachmentToken("video", a.Video.OwnerID, a.Video.ID))
		case a.Audio != nil:
			tokens = append(tokens, attachmentToken("audio", a.Audio.OwnerID, a.Audio.ID))
		case a.Doc != nil:
			tokens = append(tokens, attachmentToken("doc", a.Doc.OwnerID, a.Doc.ID))
		}
	}
	return tokens, nil
}

// UploadMedia runs the kind-specific upload flow and returns the
// attachment token for the stored media.
func (c *Client) UploadMedia(ctx context.Context, target dto.PublishTarget, path string, kind model.MediaKind, opts dto.UploadOptions) (string, error) {
	var (
		token string
		err   error
	)
	switch kind {
	case model.MediaPhoto:
		token, err = c.uploadPhoto(ctx, target, path)
	case model.MediaVideo:
		token, err = c.uploadVideo(ctx, target, path, opts)
	case model.MediaAudio:
		token, err = c.uploadAudio(ctx, target, path, opts)
	case model.MediaDoc:
		token, err = c.uploadDoc(ctx, target, path, opts)
	default:
		return "", &model.TransferError{Kind: model.TransferUnsupportedType, Err: fmt.Errorf("unknown media kind %q", kind)}
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (c *Client) uploadPhoto(ctx context.Context, target dto.PublishTarget, path string) (string, error) {
	params := url.Values{}
	if gid := groupID(target.OwnerID); gid > 0 {
		params.Set("group_id", fmt.Sprintf("%d", gid))
	}
	var server struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.call(ctx, target.AccessToken, "photos.getWallUploadServer", params, &server); err != nil {
		return "", wrapUpload("", err)
	}

	var uploaded struct {
		Server int64  `json:"server"`
		Photo  string `json:"photo"`
		Hash   string `json:"hash"`
	}
	if err := c.uploadFile(ctx, server.UploadURL, "photo", path, &uploaded); err != nil {
		return "", wrapUpload(path, err)
	}

	save := url.Values{}
	save.Set("server", fmt.Sprintf("%d", uploaded.Server))
	save.Set("photo", uploaded.Photo)
	save.Set("hash", uploaded.Hash)
	if gid := groupID(target.OwnerID); gid > 0 {
		save.Set("group_id", fmt.Sprintf("%d", gid))
	}
	var saved []struct {
		OwnerID int64 `json:"owner_id"`
		ID      int64 `json:"id"`
	}
	if err := c.call(ctx, target.AccessToken, "photos.saveWallPhoto", save, &saved); err != nil {
		return "", wrapUpload(path, err)
	}
	if len(saved) == 0 {
		return "", wrapUpload(path, fmt.Errorf("photos.saveWallPhoto returned no items"))
	}
	return attachmentToken("photo", saved[0].OwnerID, saved[0].ID), nil
}

func (c *Client) uploadVideo(ctx context.Context, target dto.PublishTarget, path string, opts dto.UploadOptions) (string, error) {
	params := url.Values{}
	if opts.Title != "" {
		params.Set("name", opts.Title)
	}
	params.Set("wallpost", "0")
	if gid := groupID(target.OwnerID); gid > 0 {
		params.Set("group_id", fmt.Sprintf("%d", gid))
	}
	var server struct {
		UploadURL string `json:"upload_url"`
		OwnerID   int64  `json:"owner_id"`
		VideoID   int64  `json:"video_id"`
	}
	if err := c.call(ctx, target.AccessToken, "video.save", params, &server); err != nil {
		return "", wrapUpload(path, err)
	}
	if err := c.uploadFile(ctx, server.UploadURL, "video_file", path, nil); err != nil {
		return "", wrapUpload(path, err)
	}
	return attachmentToken("video", server.OwnerID, server.VideoID), nil
}

func (c *Client) uploadAudio(ctx context.Context, target dto.PublishTarget, path string, opts dto.UploadOptions) (string, error) {
	var server struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.call(ctx, target.AccessToken, "audio.getUploadServer", url.Values{}, &server); err != nil {
		return "", wrapUpload(path, err)
	}

	var uploaded struct {
		Server int64  `json:"server"`
		Audio  string `json:"audio"`
		Hash   string `json:"hash"`
	}
	if err := c.uploadFile(ctx, server.UploadURL, "file", path, &uploaded); err != nil {
		return "", wrapUpload(path, err)
	}

	save := url.Values{}
	save.Set("server", fmt.Sprintf("%d", uploaded.Server))
	save.Set("audio", uploaded.Audio)
	save.Set("hash", uploaded.Hash)
	if opts.Performer != "" {
		save.Set("artist", opts.Performer)
	}
	if opts.Title != "" {
		save.Set("title", opts.Title)
	}
	var saved struct {
		OwnerID int64 `json:"owner_id"`
		ID      int64 `json:"id"`
	}
	if err := c.call(ctx, target.AccessToken, "audio.save", save, &saved); err != nil {
		return "", wrapUpload(path, err)
	}
	return attachmentToken("audio", saved.OwnerID, saved.ID), nil
}

func (c *Client) uploadDoc(ctx context.Context, target dto.PublishTarget, path string, opts dto.UploadOptions) (string, error) {
	params := url.Values{}
	if gid := groupID(target.OwnerID); gid > 0 {
		params.Set("group_id", fmt.Sprintf("%d", gid))
	}
	var server struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.call(ctx, target.AccessToken, "docs.getWallUploadServer", params, &server); err != nil {
		return "", wrapUpload(path, err)
	}

	var uploaded struct {
		File string `json:"file"`
	}
	if err := c.uploadFile(ctx, server.UploadURL, "file", path, &uploaded); err != nil {
		return "", wrapUpload(path, err)
	}

	save := url.Values{}
	save.Set("file", uploaded.File)
	if opts.FileName != "" {
		save.Set("title", opts.FileName)
	}
	var saved struct {
		Type string `json:"type"`
		Doc  struct {
			OwnerID int64 `json:"owner_id"`
			ID      int64 `json:"id"`
		} `json:"doc"`
	}
	if err := c.call(ctx, target.AccessToken, "docs.save", save, &saved); err != nil {
		return "", wrapUpload(path, err)
	}
	return attachmentToken("doc", saved.Doc.OwnerID, saved.Doc.ID), nil
}

// uploadFile POSTs a local file to an upload server as multipart form
// data and decodes the JSON reply into out. Transient server failures
// retry with the file restreamed from the start.
func (c *Client) uploadFile(ctx context.Context, uploadURL, field, path string, out interface{}) error {
	return retry.Do(ctx, c.maxRetries, c.retryDelay, func() error {
		return c.uploadFileOnce(ctx, uploadURL, field, path, out)
	})
}

func (c *Client) uploadFileOnce(ctx context.Context, uploadURL, field, path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return retry.Permanent(err)
	}
	defer file.Close()

	// Pipe the multipart body straight into the request so the file is
	// never held in memory whole.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile(field, filepath.Base(path))
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, pr)
	if err != nil {
		_ = pr.Close()
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("upload server status %d", resp.StatusCode)
		if resp.StatusCode >= http.StatusInternalServerError {
			return err
		}
		return retry.Permanent(err)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Permanent(fmt.Errorf("decode upload response: %w", err))
		}
	}
	return nil
}

func attachmentToken(kind string, ownerID, id int64) string {
	return fmt.Sprintf("%s%d_%d", kind, ownerID, id)
}

// groupID converts a negative wall owner id to the positive group id
// upload endpoints expect. Personal walls return 0.
func groupID(ownerID int64) int64 {
	if ownerID < 0 {
		return -ownerID
	}
	return 0
}

func wrapUpload(path string, err error) error {
	var terr *model.TransferError
	if errors.As(err, &terr) {
		return err
	}
	return &model.TransferError{Kind: model.TransferUploadFailed, FileID: path, Err: err}
}

var _ repository.IVK = (*Client)(nil)
