package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	identitymodels "cikyc/internal/identity/models"
	identitystore "cikyc/internal/identity/store"
	"cikyc/internal/platform/metrics"
	"cikyc/internal/user/models"
	"cikyc/internal/user/store"
	id "cikyc/pkg/domain"
	dErrors "cikyc/pkg/domain-errors"
	"cikyc/pkg/platform/sentinel"
	"cikyc/pkg/requestcontext"
)

// suspensionHorizon is the far-future suspension applied to deactivated
// accounts. Reactivation clears it; it is a flag, not a ban clock.
const suspensionHorizon = 100 * 365 * 24 * time.Hour

// Service manages dashboard accounts. An account is a profile row plus an
// identity row; the two are created without a shared transaction, so profile
// failures trigger a compensating identity delete.
type Service struct {
	users      store.Store
	identities identitystore.Store
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func New(users store.Store, identities identitystore.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		users:      users,
		identities: identities,
		logger:     logger,
		metrics:    m,
	}
}

// CreateAccountInput carries the fields for a new account.
type CreateAccountInput struct {
	Email    string
	Name     string
	Password string
	Role     models.Role
}

// CreateAccount provisions an identity and a profile. The identity goes first
// so a half-created account fails closed: credentials without a profile
// cannot log in usefully, and the compensating delete removes them anyway.
// If the compensation itself fails the orphaned identity is logged loudly for
// manual cleanup.
func (s *Service) CreateAccount(ctx context.Context, input CreateAccountInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "email is not valid")
	}
	name := strings.TrimSpace(input.Name)

	now := requestcontext.Now(ctx)
	userID := id.NewUserID()

	user, err := models.NewUser(userID, email, name, input.Role, now)
	if err != nil {
		return nil, err
	}
	identity, err := identitymodels.NewIdentity(id.NewIdentityID(), userID, email, input.Password, now)
	if err != nil {
		return nil, err
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create credentials")
	}

	if err := s.users.Create(ctx, user); err != nil {
		if compErr := s.identities.DeleteByUserID(ctx, userID); compErr != nil {
			s.logger.ErrorContext(ctx, "orphaned identity: profile creation failed and compensating delete also failed",
				"user_id", userID,
				"email", email,
				"profile_error", err.Error(),
				"compensation_error", compErr.Error(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user profile")
	}

	if s.metrics != nil {
		s.metrics.UsersCreated.Inc()
	}
	s.logger.InfoContext(ctx, "account created",
		"user_id", userID,
		"role", string(input.Role),
		"created_by", requestcontext.Email(ctx),
	)

	return user, nil
}

// List returns all accounts, newest first.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

// SetActive flips the profile's active flag and mirrors it onto the identity
// as a suspension so login checks stay single-table. The mirror is best
// effort: a missing identity is logged, not fatal, because the profile flag
// is the authority.
func (s *Service) SetActive(ctx context.Context, userID id.UserID, active bool) (*models.User, error) {
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	var until *time.Time
	if !active {
		t := requestcontext.Now(ctx).Add(suspensionHorizon)
		until = &t
	}
	if err := s.identities.SetSuspendedUntil(ctx, userID, until); err != nil {
		s.logger.WarnContext(ctx, "failed to mirror active flag onto identity",
			"user_id", userID,
			"active", active,
			"error", err.Error(),
		)
	}

	return s.findUser(ctx, userID)
}

// Delete removes the profile and its identity. Verification records owned by
// the user are kept: history outlives accounts.
func (s *Service) Delete(ctx context.Context, userID id.UserID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete user")
	}

	if err := s.identities.DeleteByUserID(ctx, userID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.ErrorContext(ctx, "profile deleted but identity delete failed",
			"user_id", userID,
			"error", err.Error(),
		)
	}

	s.logger.InfoContext(ctx, "account deleted",
		"user_id", userID,
		"deleted_by", requestcontext.Email(ctx),
	)
	return nil
}

func (s *Service) findUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}
