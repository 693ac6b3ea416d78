package models

import (
	"time"

	id "cikyc/pkg/domain"
	dErrors "cikyc/pkg/domain-errors"
)

// Role is a user's dashboard role. The numeric wire values come from the
// original data model and are kept for storage compatibility.
type Role string

const (
	RoleAgent             Role = "1"
	RoleOperatorAdmin     Role = "2"
	RoleOrganizationAdmin Role = "3"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAgent, RoleOperatorAdmin, RoleOrganizationAdmin:
		return true
	}
	return false
}

// Elevated reports whether the role sees all agents' verification records.
// Field agents see only their own.
func (r Role) Elevated() bool {
	return r == RoleOperatorAdmin || r == RoleOrganizationAdmin
}

// IsElevatedRole adapts Elevated to the middleware's string-based check.
func IsElevatedRole(role string) bool {
	return Role(role).Elevated()
}

// User is a dashboard account. Active governs authentication eligibility
// only; deactivating or deleting a user never touches their verification
// records.
type User struct {
	ID        id.UserID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUser(userID id.UserID, email, name string, role Role, now time.Time) (*User, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if !role.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "role must be one of 1, 2, 3")
	}
	return &User{
		ID:        userID,
		Email:     email,
		Name:      name,
		Role:      role,
		Active:    true,
		CreatedAt: now,
	}, nil
}
