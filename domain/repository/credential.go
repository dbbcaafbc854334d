package repository

import (
	"context"

	"crossposter/domain/model"
)

// ICredential persists VK OAuth tokens per target.
type ICredential interface {
	GetCredential(ctx context.Context, targetID int64) (*model.Credential, error)
	UpsertCredential(ctx context.Context, cred *model.Credential) error
}

// ITokenManager hands out a credential that is guaranteed fresh for at least
// the refresh margin, refreshing and persisting it when needed.
type ITokenManager interface {
	EnsureFresh(ctx context.Context, targetID int64) (*model.Credential, error)
}
