package vk

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"crossposter/domain/model"
	"crossposter/domain/repository"
	"crossposter/infrastructure/logger"
)

const tokenURL = "https://oauth.vk.com/access_token"

// TokenManager hands out fresh credentials per target. It refreshes
// through the OAuth refresh_token grant inside the margin before expiry
// and persists the rotated tokens before returning them.
type TokenManager struct {
	credentials repository.ICredential
	oauthConfig *oauth2.Config

	mu    sync.Mutex
	cache map[int64]*model.Credential

	now       func() time.Time
	refreshFn func(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

func NewTokenManager(credentials repository.ICredential, clientID, clientSecret string) *TokenManager {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
	}
	m := &TokenManager{
		credentials: credentials,
		oauthConfig: cfg,
		cache:       make(map[int64]*model.Credential),
		now:         time.Now,
	}
	m.refreshFn = func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
		return src.Token()
	}
	return m
}

// EnsureFresh returns a credential valid for at least the refresh margin.
// A stored credential rotated by another process is adopted without a
// network call; only a credential stale in the store triggers a refresh.
func (m *TokenManager) EnsureFresh(ctx context.Context, targetID int64) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if cached, ok := m.cache[targetID]; ok && !cached.Stale(now) {
		return cached, nil
	}

	stored, err := m.credentials.GetCredential(ctx, targetID)
	if err != nil {
		return nil, &model.AuthError{TargetID: targetID, Err: err}
	}
	if !stored.Stale(now) {
		m.cache[targetID] = stored
		return stored, nil
	}

	token, err := m.refreshFn(ctx, stored.RefreshToken)
	if err != nil {
		return nil, &model.AuthError{TargetID: targetID, Err: err}
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = now.Add(model.DefaultTokenTTL)
	}
	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = stored.RefreshToken
	}

	fresh := &model.Credential{
		TargetID:     targetID,
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    &expiresAt,
		CreatedAt:    stored.CreatedAt,
		UpdatedAt:    now,
	}
	if err := m.credentials.UpsertCredential(ctx, fresh); err != nil {
		return nil, &model.AuthError{TargetID: targetID, Err: err}
	}
	m.cache[targetID] = fresh

	logger.GetLogger().WithField("target_id", targetID).WithField("expires_at", expiresAt.Format(time.RFC3339)).
		Info("Access token refreshed")
	return fresh, nil
}

var _ repository.ITokenManager = (*TokenManager)(nil)
