package handler

import (
	"strings"

	identitymodels "cikyc/internal/identity/models"
	"cikyc/internal/user/models"
	"cikyc/internal/user/service"
	dErrors "cikyc/pkg/domain-errors"
)

// CreateUserRequest is the HTTP request body for POST /admin/users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate normalizes and checks the account fields.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateUserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Password) < identitymodels.MinPasswordLength {
		return dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", identitymodels.MinPasswordLength)
	}
	if !models.Role(r.Role).Valid() {
		return dErrors.New(dErrors.CodeValidation, "role must be one of 1, 2, 3")
	}
	return nil
}

// Input converts the request into the service input.
func (r *CreateUserRequest) Input() service.CreateAccountInput {
	return service.CreateAccountInput{
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
		Role:     models.Role(r.Role),
	}
}

// UpdateUserRequest is the HTTP request body for PATCH /admin/users/{id}.
// Only the active flag is mutable; everything else is fixed at creation.
type UpdateUserRequest struct {
	Active *bool `json:"is_active"`
}

// Validate requires the one supported field to be present.
func (r *UpdateUserRequest) Validate() error {
	if r == nil || r.Active == nil {
		return dErrors.New(dErrors.CodeValidation, "is_active is required")
	}
	return nil
}
