package model

import "time"

// RefreshMargin is how long before expiry a token is considered stale.
const RefreshMargin = 300 * time.Second

// DefaultTokenTTL is applied when the token endpoint omits expires_in.
const DefaultTokenTTL = 3300 * time.Second

// Credential stores the VK OAuth tokens for one target. Mutated only by the
// token manager; everything else reads it through EnsureFresh.
type Credential struct {
	TargetID     int64      `json:"target_id"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Stale reports whether the token is missing an expiry or enters the refresh
// margin at the given instant.
func (c *Credential) Stale(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return !now.Add(RefreshMargin).Before(*c.ExpiresAt)
}
