// Package domain defines typed identifiers shared across packages. Distinct
// UUID wrapper types keep user and record ids from being mixed up at compile
// time.
package domain

import (
	"github.com/google/uuid"

	dErrors "cikyc/pkg/domain-errors"
)

// UserID identifies a dashboard user account.
type UserID uuid.UUID

// RecordID identifies a verification record.
type RecordID uuid.UUID

// IdentityID identifies an authentication identity.
type IdentityID uuid.UUID

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id RecordID) String() string   { return uuid.UUID(id).String() }
func (id IdentityID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id IdentityID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// The wrapper types are defined over uuid.UUID, so they do not inherit its
// text marshaling; without these delegations encoding/json would render an
// id as an array of 16 bytes instead of its canonical string form.

func (id UserID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id RecordID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id IdentityID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RecordID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *IdentityID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// NewUserID generates a random user id.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewRecordID generates a random record id.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

// NewIdentityID generates a random identity id.
func NewIdentityID() IdentityID { return IdentityID(uuid.New()) }

// ParseUserID parses a user id from its string form. IDs must be valid,
// non-empty, non-nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseRecordID parses a record id from its string form.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RecordID{}, err
	}
	return RecordID(u), nil
}

// ParseIdentityID parses an identity id from its string form.
func ParseIdentityID(s string) (IdentityID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return IdentityID{}, err
	}
	return IdentityID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
