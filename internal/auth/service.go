// Package auth implements login, logout, and session introspection on top of
// JWT access tokens and the session registry.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"cikyc/internal/auth/lockout"
	"cikyc/internal/auth/sessions"
	identitystore "cikyc/internal/identity/store"
	usermodels "cikyc/internal/user/models"
	userstore "cikyc/internal/user/store"
	id "cikyc/pkg/domain"
	dErrors "cikyc/pkg/domain-errors"
	"cikyc/pkg/platform/sentinel"
	"cikyc/pkg/requestcontext"
)

// TokenIssuer abstracts JWT creation for the login flow.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, email, name, role string, expiresIn time.Duration) (string, string, error)
}

// Service authenticates dashboard users and manages their sessions.
type Service struct {
	identities identitystore.Store
	users      userstore.Store
	sessions   sessions.Store
	lockout    *lockout.Service
	issuer     TokenIssuer
	tokenTTL   time.Duration
	logger     *slog.Logger
}

func New(identities identitystore.Store, users userstore.Store, sessionStore sessions.Store, lockoutSvc *lockout.Service, issuer TokenIssuer, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		identities: identities,
		users:      users,
		sessions:   sessionStore,
		lockout:    lockoutSvc,
		issuer:     issuer,
		tokenTTL:   tokenTTL,
		logger:     logger,
	}
}

// LoginResult carries the issued token and the authenticated profile.
type LoginResult struct {
	Token string
	User  *usermodels.User
}

// errBadCredentials is the single rejection returned for every credential
// failure so responses don't reveal whether an email is registered.
func errBadCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

// Login verifies the credentials and every account gate (confirmed email, no
// suspension, active profile), then issues a token and registers its session.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errBadCredentials()
	}

	if err := s.lockout.Check(ctx, email); err != nil {
		return nil, err
	}

	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordLoginFailure(ctx, email)
			return nil, errBadCredentials()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credentials")
	}

	if !identity.CheckPassword(password) {
		s.recordLoginFailure(ctx, email)
		return nil, errBadCredentials()
	}
	if !identity.EmailConfirmed {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "email address is not confirmed")
	}
	if identity.Suspended(requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is suspended")
	}

	user, err := s.users.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Credentials without a profile: the half-created-account gap.
			s.logger.ErrorContext(ctx, "identity has no profile row",
				"user_id", identity.UserID,
			)
			return nil, errBadCredentials()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user profile")
	}
	if !user.Active {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is deactivated")
	}

	token, tokenID, err := s.issuer.GenerateAccessToken(user.ID, user.Email, user.Name, string(user.Role), s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}

	if err := s.sessions.Save(ctx, tokenID, sessionFor(user), s.tokenTTL); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register session")
	}

	if err := s.lockout.Clear(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "failed to clear login lockout state",
			"error", err.Error(),
		)
	}

	s.logger.InfoContext(ctx, "user logged in",
		"user_id", user.ID,
		"role", string(user.Role),
	)

	return &LoginResult{Token: token, User: user}, nil
}

// recordLoginFailure is best-effort: a broken lockout store must not turn a
// clean credential rejection into an internal error.
func (s *Service) recordLoginFailure(ctx context.Context, email string) {
	if err := s.lockout.RecordFailure(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure",
			"error", err.Error(),
		)
	}
}

// Logout drops the caller's cached session. Tokens stay valid until expiry
// (the client discards its copy); the registry entry just stops serving Me
// from cache. Dropping an unknown id is a no-op so logout is idempotent.
func (s *Service) Logout(ctx context.Context) error {
	tokenID := requestcontext.TokenID(ctx)
	if tokenID == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication context missing")
	}
	if err := s.sessions.Delete(ctx, tokenID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	s.logger.InfoContext(ctx, "user logged out",
		"user_id", requestcontext.UserID(ctx),
	)
	return nil
}

// Me returns the caller's current profile, read through the session registry:
// a registry hit answers from cache, a miss falls back to the profile store
// and re-registers the session so a flushed Redis never logs anyone out.
func (s *Service) Me(ctx context.Context) (*usermodels.User, error) {
	tokenID := requestcontext.TokenID(ctx)
	userID := requestcontext.UserID(ctx)
	if tokenID == "" || userID.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication context missing")
	}

	if cached, err := s.sessions.Get(ctx, tokenID); err == nil {
		return &usermodels.User{
			ID:     cached.UserID,
			Email:  cached.Email,
			Name:   cached.Name,
			Role:   usermodels.Role(cached.Role),
			Active: true,
		}, nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check session")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user profile")
	}
	if !user.Active {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is deactivated")
	}

	if err := s.sessions.Save(ctx, tokenID, sessionFor(user), s.tokenTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to refresh session cache",
			"error", err.Error(),
		)
	}

	return user, nil
}

func sessionFor(user *usermodels.User) sessions.Session {
	return sessions.Session{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   string(user.Role),
	}
}
