// Package store persists authentication identities.
package store

import (
	"context"
	"time"

	"cikyc/internal/identity/models"
	id "cikyc/pkg/domain"
)

// Store is the identity persistence interface.
type Store interface {
	// Create inserts an identity. Returns sentinel.ErrConflict when the email
	// already has credentials.
	Create(ctx context.Context, identity *models.Identity) error
	// FindByEmail returns sentinel.ErrNotFound when no identity exists.
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	// SetSuspendedUntil sets or clears (nil) the suspension horizon.
	SetSuspendedUntil(ctx context.Context, userID id.UserID, until *time.Time) error
	// DeleteByUserID removes the identity for a user. Used both by account
	// deletion and as the compensating action when profile creation fails.
	DeleteByUserID(ctx context.Context, userID id.UserID) error
}
