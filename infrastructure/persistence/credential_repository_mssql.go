package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crossposter/domain/model"
)

type CredentialRepositoryMSSQL struct{ db *sql.DB }

func NewCredentialRepositoryMSSQL(db *sql.DB) *CredentialRepositoryMSSQL {
	return &CredentialRepositoryMSSQL{db: db}
}

// EnsureCredentialSchemaMSSQL creates the vk_credentials table for SQL Server if it does not exist.
func EnsureCredentialSchemaMSSQL(db *sql.DB) error {
	ddl := `IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.vk_credentials') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[vk_credentials] (
        target_id BIGINT PRIMARY KEY,
        access_token NVARCHAR(MAX) NOT NULL,
        refresh_token NVARCHAR(MAX) NOT NULL,
        expires_at DATETIME2 NULL,
        created_at DATETIME2 NOT NULL,
        updated_at DATETIME2 NOT NULL
    );
END`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create vk_credentials (mssql): %w", err)
	}
	return nil
}

func (r *CredentialRepositoryMSSQL) GetCredential(ctx context.Context, targetID int64) (*model.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT target_id, access_token, refresh_token, expires_at, created_at, updated_at FROM vk_credentials WHERE target_id=@p1`,
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

func (r *CredentialRepositoryMSSQL) UpsertCredential(ctx context.Context, c *model.Credential) error {
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

	res, err := r.db.ExecContext(ctx,
		`UPDATE vk_credentials SET access_token=@p2, refresh_token=@p3, expires_at=@p4, updated_at=@p5 WHERE target_id=@p1`,
		c.TargetID, c.AccessToken, c.RefreshToken, exp, c.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO vk_credentials (target_id, access_token, refresh_token, expires_at, created_at, updated_at) VALUES (@p1,@p2,@p3,@p4,@p5,@p6)`,
		c.TargetID, c.AccessToken, c.RefreshToken, exp, c.CreatedAt, c.UpdatedAt)
	return err
}
