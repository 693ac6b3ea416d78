// Package sessions tracks live access tokens. Tokens are stateless JWTs; the
// registry exists so logout and account deactivation can revoke them before
// expiry. Entries are keyed by the token's jti and expire with the token.
package sessions

import (
	"context"
	"time"

	id "cikyc/pkg/domain"
)

// Session is the cached identity behind a live token.
type Session struct {
	UserID id.UserID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   string    `json:"role"`
}

// Store is the session registry interface.
type Store interface {
	// Save registers a session under its token id with the token's remaining
	// lifetime.
	Save(ctx context.Context, tokenID string, session Session, ttl time.Duration) error
	// Get returns sentinel.ErrNotFound for unknown or revoked token ids.
	Get(ctx context.Context, tokenID string) (*Session, error)
	// Delete revokes a session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, tokenID string) error
}
