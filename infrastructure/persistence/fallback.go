package persistence

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"sync"

	"crossposter/domain/model"
	"crossposter/domain/repository"
	"crossposter/infrastructure/logger"
	"crossposter/infrastructure/utils"
)

// StaticSettings serves a single channel link from environment variables
// (TELEGRAM_CHANNEL_ID, VK_TARGET_ID, VK_POST_AS_GROUP, VK_USER_ID).
// Used when no database is reachable.
type StaticSettings struct {
	link *model.ChannelLink
}

func NewStaticSettings() *StaticSettings {
	channelID, err1 := strconv.ParseInt(os.Getenv("TELEGRAM_CHANNEL_ID"), 10, 64)
	targetID, err2 := strconv.ParseInt(os.Getenv("VK_TARGET_ID"), 10, 64)
	if err1 != nil || err2 != nil {
		logger.GetLogger().Warn("TELEGRAM_CHANNEL_ID or VK_TARGET_ID not set - static settings empty")
		return &StaticSettings{}
	}
	userID, _ := strconv.ParseInt(os.Getenv("VK_USER_ID"), 10, 64)
	postAsGroup := os.Getenv("VK_POST_AS_GROUP") != "false"
	return &StaticSettings{link: &model.ChannelLink{
		ID:          1,
		ChannelID:   model.InternalChannelID(channelID),
		UserID:      userID,
		TargetID:    targetID,
		PostAsGroup: postAsGroup,
		Active:      true,
	}}
}

func (s *StaticSettings) GetChannelLink(_ context.Context, chatID int64) (*model.ChannelLink, error) {
	if s.link == nil || s.link.ChannelID != model.InternalChannelID(chatID) {
		return nil, nil
	}
	return s.link, nil
}

// FileCredentialStore keeps one credential per target in a JSON file.
type FileCredentialStore struct {
	mu   sync.Mutex
	path string
}

func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

func (s *FileCredentialStore) load() (map[string]*model.Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*model.Credential{}, nil
		}
		return nil, err
	}
	creds := map[string]*model.Credential{}
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func (s *FileCredentialStore) GetCredential(_ context.Context, targetID int64) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, err := s.load()
	if err != nil {
		return nil, err
	}
	cred, ok := creds[strconv.FormatInt(targetID, 10)]
	if !ok {
		// Seed from environment on first use.
		access := os.Getenv("VK_ACCESS_TOKEN")
		refresh := os.Getenv("VK_REFRESH_TOKEN")
		if access == "" && refresh == "" {
			return nil, os.ErrNotExist
		}
		return &model.Credential{
			TargetID:     targetID,
			AccessToken:  access,
			RefreshToken: refresh,
			CreatedAt:    utils.GetCurrentTime(),
		}, nil
	}
	return cred, nil
}

func (s *FileCredentialStore) UpsertCredential(_ context.Context, cred *model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds, err := s.load()
	if err != nil {
		return err
	}
	creds[strconv.FormatInt(cred.TargetID, 10)] = cred
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// FileMappingRepository adapts the line-based mapping store to the mapping
// repository interface. Only the post id survives a round trip.
type FileMappingRepository struct {
	store *FileMappingStore
}

func NewFileMappingRepository(store *FileMappingStore) *FileMappingRepository {
	return &FileMappingRepository{store: store}
}

func (r *FileMappingRepository) UpsertMapping(_ context.Context, m *model.PostMapping) error {
	return r.store.Save(m.TelegramMessageID, m.VKPostID)
}

func (r *FileMappingRepository) GetByMessageID(_ context.Context, messageID, userID int64) (*model.PostMapping, error) {
	postID, ok := r.store.Lookup(messageID)
	if !ok {
		return nil, nil
	}
	return &model.PostMapping{
		TelegramMessageID: messageID,
		UserID:            userID,
		VKPostID:          postID,
		Status:            model.StatusPublished,
	}, nil
}

func (r *FileMappingRepository) RecentMappings(_ context.Context, _ int) ([]*model.PostMapping, error) {
	return nil, nil
}

// NoopMediaItems discards media bookkeeping in degraded mode.
type NoopMediaItems struct{}

func (NoopMediaItems) SaveMediaItem(_ context.Context, _ *model.MediaItem) (int64, error) {
	return 0, nil
}

var (
	_ repository.ISettings    = (*StaticSettings)(nil)
	_ repository.ICredential  = (*FileCredentialStore)(nil)
	_ repository.IPostMapping = (*FileMappingRepository)(nil)
	_ repository.IMediaItem   = NoopMediaItems{}
)
