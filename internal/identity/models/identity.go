// Package models defines authentication identities. An identity holds the
// credentials for a user profile; the two rows live in different tables and
// are linked by user id, so either can fail independently during account
// creation.
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	id "cikyc/pkg/domain"
	dErrors "cikyc/pkg/domain-errors"
)

// MinPasswordLength is the floor for new passwords.
const MinPasswordLength = 8

// Identity is a credential row. SuspendedUntil mirrors profile deactivation:
// a deactivated user carries a far-future suspension so login checks need
// only the identity row.
type Identity struct {
	ID             id.IdentityID
	UserID         id.UserID
	Email          string
	PasswordHash   []byte
	EmailConfirmed bool
	SuspendedUntil *time.Time
	CreatedAt      time.Time
}

// NewIdentity hashes the password and builds a confirmed identity. Accounts
// are operator-created from the dashboard, so there is no separate email
// confirmation round trip; the flag exists for imported legacy rows.
func NewIdentity(identityID id.IdentityID, userID id.UserID, email, password string, now time.Time) (*Identity, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	return &Identity{
		ID:             identityID,
		UserID:         userID,
		Email:          email,
		PasswordHash:   hash,
		EmailConfirmed: true,
		CreatedAt:      now,
	}, nil
}

// CheckPassword reports whether the candidate matches the stored hash.
func (i *Identity) CheckPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword(i.PasswordHash, []byte(candidate)) == nil
}

// Suspended reports whether the identity is suspended at the given time.
func (i *Identity) Suspended(now time.Time) bool {
	return i.SuspendedUntil != nil && i.SuspendedUntil.After(now)
}
