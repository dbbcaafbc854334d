package persistence

import (
	"context"
	"database/sql"
	"time"

	"crossposter/domain/model"
)

type CredentialRepository struct{ db *sql.DB }

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) GetCredential(ctx context.Context, targetID int64) (*model.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT target_id, access_token, refresh_token, expires_at, created_at, updated_at FROM vk_credentials WHERE target_id=$1`,
		targetID)
	cred := &model.Credential{}
	var exp sql.NullTime
	if err := row.Scan(&cred.TargetID, &cred.AccessToken, &cred.RefreshToken, &exp, &cred.CreatedAt, &cred.UpdatedAt); err != nil {
		return nil, err
	}
	if exp.Valid {
		cred.ExpiresAt = &exp.Time
	}
	return cred, nil
}

func (r *CredentialRepository) UpsertCredential(ctx context.Context, c *model.Credential) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	var exp sql.NullTime
	if c.ExpiresAt != nil {
		exp.Valid = true
		exp.Time = *c.ExpiresAt
	}
	q := `INSERT INTO vk_credentials (target_id, access_token, refresh_token, expires_at, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6)
		  ON CONFLICT (target_id) DO UPDATE SET
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			expires_at=EXCLUDED.expires_at,
			updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, c.TargetID, c.AccessToken, c.RefreshToken, exp, c.CreatedAt, c.UpdatedAt)
	return err
}
