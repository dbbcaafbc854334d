package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"crossposter/domain/dto"
	"crossposter/domain/model"
)

type mockSettings struct{ mock.Mock }

func (m *mockSettings) GetChannelLink(ctx context.Context, chatID int64) (*model.ChannelLink, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChannelLink), args.Error(1)
}

type mockTokenManager struct{ mock.Mock }

func (m *mockTokenManager) EnsureFresh(ctx context.Context, targetID int64) (*model.Credential, error) {
	args := m.Called(ctx, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credential), args.Error(1)
}

type mockPostMapping struct{ mock.Mock }

func (m *mockPostMapping) UpsertMapping(ctx context.Context, pm *model.PostMapping) error {
	args := m.Called(ctx, pm)
	return args.Error(0)
}

func (m *mockPostMapping) GetByMessageID(ctx context.Context, messageID, userID int64) (*model.PostMapping, error) {
	args := m.Called(ctx, messageID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostMapping), args.Error(1)
}

func (m *mockPostMapping) RecentMappings(ctx context.Context, limit int) ([]*model.PostMapping, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PostMapping), args.Error(1)
}

type mockMediaItem struct{ mock.Mock }

func (m *mockMediaItem) SaveMediaItem(ctx context.Context, item *model.MediaItem) (int64, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(int64), args.Error(1)
}

type mockAudit struct{ mock.Mock }

func (m *mockAudit) Append(ctx context.Context, entry *model.CrosspostAudit) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type mockVK struct{ mock.Mock }

func (m *mockVK) UploadMedia(ctx context.Context, target dto.PublishTarget, path string, kind model.MediaKind, opts dto.UploadOptions) (string, error) {
	args := m.Called(ctx, target, path, kind, opts)
	return args.String(0), args.Error(1)
}

func (m *mockVK) CreatePost(ctx context.Context, target dto.PublishTarget, text string, attachments []string, sourceLink string) (int64, error) {
	args := m.Called(ctx, target, text, attachments, sourceLink)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockVK) EditPost(ctx context.Context, target dto.PublishTarget, postID int64, text string, attachments []string, sourceLink string) error {
	args := m.Called(ctx, target, postID, text, attachments, sourceLink)
	return args.Error(0)
}

func (m *mockVK) GetPostAttachments(ctx context.Context, target dto.PublishTarget, postID int64) ([]string, error) {
	args := m.Called(ctx, target, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockTelegram struct{ mock.Mock }

func (m *mockTelegram) GetChat(ctx context.Context, chatID int64) (*dto.ChatInfo, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ChatInfo), args.Error(1)
}

func (m *mockTelegram) GetFile(ctx context.Context, fileID string) (*dto.TelegramFile, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TelegramFile), args.Error(1)
}

func (m *mockTelegram) DownloadFile(ctx context.Context, filePath, destination string) error {
	args := m.Called(ctx, filePath, destination)
	return args.Error(0)
}
