package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"crossposter/domain/dto"
	"crossposter/domain/model"
	"crossposter/domain/repository"
	"crossposter/infrastructure/logger"
	"crossposter/infrastructure/retry"
)

const apiBaseURL = "https://api.telegram.org"

// Client talks to the Telegram Bot API over HTTPS. File operations
// (getFile, downloads) retry transient failures; the update poll does
// not, its caller owns the poll loop.
type Client struct {
	token       string
	pollTimeout int
	maxRetries  int
	retryDelay  time.Duration
	httpClient  *http.Client
	baseURL     string
	offset      int64
}

func NewTelegramClient(token string, pollTimeout, maxRetries int, retryDelay time.Duration) *Client {
	return &Client{
		token:       token,
		pollTimeout: pollTimeout,
		maxRetries:  maxRetries,
		retryDelay:  retryDelay,
		httpClient:  &http.Client{Timeout: time.Duration(pollTimeout+10) * time.Second},
		baseURL:     apiBaseURL,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// apiError is a Bot API rejection (ok=false). Never worth retrying.
type apiError struct {
	Method      string
	Code        int
	Description string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("telegram %s: api error %d: %s", e.Method, e.Code, e.Description)
}

type wireUpdate struct {
	UpdateID          int64        `json:"update_id"`
	ChannelPost       *wireMessage `json:"channel_post"`
	EditedChannelPost *wireMessage `json:"edited_channel_post"`
}

type wireMessage struct {
	MessageID       int64          `json:"message_id"`
	Date            int64          `json:"date"`
	Chat            wireChat       `json:"chat"`
	Text            string         `json:"text"`
	Caption         string         `json:"caption"`
	MediaGroupID    string         `json:"media_group_id"`
	ForwardFrom     *wireUser      `json:"forward_from"`
	ForwardFromChat *wireChat      `json:"forward_from_chat"`
	Photo           []wirePhoto    `json:"photo"`
	Video           *wireVideo     `json:"video"`
	VideoNote       *wireVideoNote `json:"video_note"`
	Document        *wireDocument  `json:"document"`
	Audio           *wireAudio     `json:"audio"`
}

type wireChat struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Title    string `json:"title"`
	Type     string `json:"type"`
}

type wireUser struct {
	ID int64 `json:"id"`
}

type wirePhoto struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type wireVideo struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	MIMEType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Duration int    `json:"duration"`
}

type wireVideoNote struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
	Duration int    `json:"duration"`
}

type wireDocument struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	MIMEType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

type wireAudio struct {
	FileID    string `json:"file_id"`
	FileName  string `json:"file_name"`
	MIMEType  string `json:"mime_type"`
	FileSize  int64  `json:"file_size"`
	Duration  int    `json:"duration"`
	Performer string `json:"performer"`
	Title     string `json:"title"`
}

type wireFile struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
	FilePath string `json:"file_path"`
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = params.Encode()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !envelope.OK {
		return &apiError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for channel posts and edits. The confirmed
// offset advances past every update returned.
func (c *Client) GetUpdates(ctx context.Context) ([]model.Message, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(c.offset, 10))
	params.Set("timeout", strconv.Itoa(c.pollTimeout))
	params.Set("allowed_updates", `["channel_post","edited_channel_post"]`)

	var updates []wireUpdate
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}

	var messages []model.Message
	for _, u := range updates {
		if u.UpdateID >= c.offset {
			c.offset = u.UpdateID + 1
		}
		switch {
		case u.ChannelPost != nil:
			messages = append(messages, convertMessage(u.ChannelPost, false))
		case u.EditedChannelPost != nil:
			messages = append(messages, convertMessage(u.EditedChannelPost, true))
		}
	}
	return messages, nil
}

func (c *Client) GetChat(ctx context.Context, chatID int64) (*dto.ChatInfo, error) {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))

	var chat wireChat
	if err := c.call(ctx, "getChat", params, &chat); err != nil {
		return nil, err
	}
	return &dto.ChatInfo{ID: chat.ID, Username: chat.Username, Title: chat.Title}, nil
}

func (c *Client) GetFile(ctx context.Context, fileID string) (*dto.TelegramFile, error) {
	params := url.Values{}
	params.Set("file_id", fileID)

	var file wireFile
	err := retry.Do(ctx, c.maxRetries, c.retryDelay, func() error {
		if err := c.call(ctx, "getFile", params, &file); err != nil {
			var apiErr *apiError
			if errors.As(err, &apiErr) {
				return retry.Permanent(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.TelegramFile{FileID: file.FileID, FileSize: file.FileSize, FilePath: file.FilePath}, nil
}

// DownloadFile streams a file from Telegram's file endpoint into
// destination. Transient failures restart the transfer; a partial
// file is removed before each retry.
func (c *Client) DownloadFile(ctx context.Context, filePath string, destination string) error {
	return retry.Do(ctx, c.maxRetries, c.retryDelay, func() error {
		return c.downloadOnce(ctx, filePath, destination)
	})
}

func (c *Client) downloadOnce(ctx context.Context, filePath string, destination string) error {
	endpoint := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return retry.Permanent(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("telegram download: status %d", resp.StatusCode)
		if resp.StatusCode >= http.StatusInternalServerError {
			return err
		}
		return retry.Permanent(err)
	}

	out, err := os.Create(destination)
	if err != nil {
		return retry.Permanent(err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(destination)
		return fmt.Errorf("telegram download: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(destination)
		return retry.Permanent(err)
	}
	logger.GetLogger().WithField("destination", destination).Debug("File downloaded")
	return nil
}

func convertMessage(w *wireMessage, edited bool) model.Message {
	msg := model.Message{
		MessageID:       w.MessageID,
		ChatID:          w.Chat.ID,
		ChatUsername:    w.Chat.Username,
		Date:            time.Unix(w.Date, 0),
		Text:            w.Text,
		Caption:         w.Caption,
		Edited:          edited,
		ForwardFromUser: w.ForwardFrom != nil,
		ForwardFromChat: w.ForwardFromChat != nil,
		ContentType:     model.ContentText,
	}
	msg.MediaGroupID = w.MediaGroupID

	switch {
	case len(w.Photo) > 0:
		// Telegram sends every size; the last entry is the largest.
		p := w.Photo[len(w.Photo)-1]
		msg.ContentType = model.ContentPhoto
		msg.Attachment = &model.Attachment{
			FileID:   p.FileID,
			Kind:     model.MediaPhoto,
			FileName: "photo.jpg",
			FileSize: p.FileSize,
			Width:    p.Width,
			Height:   p.Height,
		}
	case w.Video != nil:
		msg.ContentType = model.ContentVideo
		msg.Attachment = &model.Attachment{
			FileID:   w.Video.FileID,
			Kind:     model.MediaVideo,
			FileName: w.Video.FileName,
			FileSize: w.Video.FileSize,
			MIMEType: w.Video.MIMEType,
			Width:    w.Video.Width,
			Height:   w.Video.Height,
			Duration: w.Video.Duration,
		}
	case w.VideoNote != nil:
		msg.ContentType = model.ContentVideoNote
		msg.Attachment = &model.Attachment{
			FileID:   w.VideoNote.FileID,
			Kind:     model.MediaVideo,
			FileName: "video_note.mp4",
			FileSize: w.VideoNote.FileSize,
			Duration: w.VideoNote.Duration,
		}
	case w.Document != nil:
		msg.ContentType = model.ContentDocument
		msg.Attachment = &model.Attachment{
			FileID:   w.Document.FileID,
			Kind:     model.MediaDoc,
			FileName: w.Document.FileName,
			FileSize: w.Document.FileSize,
			MIMEType: w.Document.MIMEType,
		}
	case w.Audio != nil:
		msg.ContentType = model.ContentAudio
		msg.Attachment = &model.Attachment{
			FileID:    w.Audio.FileID,
			Kind:      model.MediaAudio,
			FileName:  w.Audio.FileName,
			FileSize:  w.Audio.FileSize,
			MIMEType:  w.Audio.MIMEType,
			Duration:  w.Audio.Duration,
			Performer: w.Audio.Performer,
			Title:     w.Audio.Title,
		}
	}
	return msg
}

var _ repository.ITelegram = (*Client)(nil)
