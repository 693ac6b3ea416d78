package handler

import (
	"net/mail"
	"strings"

	"cikyc/internal/verification/service"
	dErrors "cikyc/pkg/domain-errors"
)

// GenerateLinkRequest is the HTTP request body for POST /verifications.
type GenerateLinkRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"user_email"`
}

// Validate normalizes and checks the subject fields.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *GenerateLinkRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 200 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 200 characters")
	}

	r.Phone = strings.TrimSpace(r.Phone)
	if r.Phone == "" {
		return dErrors.New(dErrors.CodeValidation, "phone is required")
	}
	if len(r.Phone) > 30 {
		return dErrors.New(dErrors.CodeValidation, "phone must be at most 30 characters")
	}

	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "user_email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return dErrors.New(dErrors.CodeValidation, "user_email is not valid")
	}

	return nil
}

// Subject converts the request into the service input.
func (r *GenerateLinkRequest) Subject() service.Subject {
	return service.Subject{
		Name:  r.Name,
		Phone: r.Phone,
		Email: r.Email,
	}
}
