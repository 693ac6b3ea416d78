// Package store persists dashboard user profiles. Two implementations share
// the Store interface: an in-memory map for tests and local runs, and
// PostgreSQL for deployments. Both return sentinel errors; services translate
// them to domain errors.
package store

import (
	"context"

	"cikyc/internal/user/models"
	id "cikyc/pkg/domain"
)

// Store is the user profile persistence interface.
type Store interface {
	// Create inserts a profile. Returns sentinel.ErrConflict when the email
	// is already taken.
	Create(ctx context.Context, user *models.User) error
	// FindByID returns sentinel.ErrNotFound when no profile exists.
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	// FindByEmail returns sentinel.ErrNotFound when no profile exists.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// List returns all profiles, newest first.
	List(ctx context.Context) ([]*models.User, error)
	// SetActive flips the active flag.
	SetActive(ctx context.Context, userID id.UserID, active bool) error
	// Delete removes the profile row.
	Delete(ctx context.Context, userID id.UserID) error
}
