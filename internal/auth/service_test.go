package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cikyc/internal/auth/lockout"
	"cikyc/internal/auth/sessions"
	identitymodels "cikyc/internal/identity/models"
	identitystore "cikyc/internal/identity/store"
	jwttoken "cikyc/internal/jwt_token"
	usermodels "cikyc/internal/user/models"
	userstore "cikyc/internal/user/store"
	id "cikyc/pkg/domain"
	dErrors "cikyc/pkg/domain-errors"
	"cikyc/pkg/requestcontext"
)

type AuthSuite struct {
	suite.Suite
	identities *identitystore.InMemory
	users      *userstore.InMemory
	sessions   *sessions.Memory
	jwtService *jwttoken.JWTService
	svc        *Service
	ctx        context.Context
	now        time.Time
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}

func (s *AuthSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.identities = identitystore.NewInMemory()
	s.users = userstore.NewInMemory()
	s.sessions = sessions.NewMemory()
	s.jwtService = jwttoken.NewJWTService("test-signing-key", "cikyc")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = New(s.identities, s.users, s.sessions, lockout.New(lockout.NewMemory(), logger), s.jwtService, time.Hour, logger)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

// seedAccount creates a full account (profile + identity) directly in the
// stores.
func (s *AuthSuite) seedAccount(email, password string, role usermodels.Role) *usermodels.User {
	userID := id.NewUserID()
	user, err := usermodels.NewUser(userID, email, "Agent One", role, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(s.ctx, user))

	identity, err := identitymodels.NewIdentity(id.NewIdentityID(), userID, email, password, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.identities.Create(s.ctx, identity))
	return user
}

func (s *AuthSuite) TestLogin() {
	user := s.seedAccount("agent@cikyc.example", "correct horse battery", usermodels.RoleAgent)

	s.Run("valid credentials issue a token", func() {
		result, err := s.svc.Login(s.ctx, "agent@cikyc.example", "correct horse battery")

		s.Require().NoError(err)
		s.NotEmpty(result.Token)
		s.Equal(user.ID, result.User.ID)

		claims, err := s.jwtService.ValidateToken(result.Token)
		s.Require().NoError(err)
		s.Equal(user.ID.String(), claims.UserID)
		s.Equal("Agent One", claims.Name)
		s.Equal("1", claims.Role)

		// Login registers the session under the token id.
		cached, err := s.sessions.Get(s.ctx, claims.ID)
		s.Require().NoError(err)
		s.Equal(user.ID, cached.UserID)
	})

	s.Run("email lookup ignores case and whitespace", func() {
		_, err := s.svc.Login(s.ctx, "  AGENT@cikyc.example ", "correct horse battery")
		s.NoError(err)
	})

	s.Run("wrong password", func() {
		_, err := s.svc.Login(s.ctx, "agent@cikyc.example", "wrong")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown email gets the same rejection", func() {
		_, err := s.svc.Login(s.ctx, "ghost@cikyc.example", "correct horse battery")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("invalid email or password", dErrors.MessageOf(err))
	})

	s.Run("empty credentials", func() {
		_, err := s.svc.Login(s.ctx, "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AuthSuite) TestLoginGates() {
	s.Run("suspended identity is forbidden", func() {
		user := s.seedAccount("suspended@cikyc.example", "correct horse battery", usermodels.RoleAgent)
		until := s.now.Add(time.Hour)
		s.Require().NoError(s.identities.SetSuspendedUntil(s.ctx, user.ID, &until))

		_, err := s.svc.Login(s.ctx, "suspended@cikyc.example", "correct horse battery")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("expired suspension allows login", func() {
		user := s.seedAccount("released@cikyc.example", "correct horse battery", usermodels.RoleAgent)
		until := s.now.Add(-time.Hour)
		s.Require().NoError(s.identities.SetSuspendedUntil(s.ctx, user.ID, &until))

		_, err := s.svc.Login(s.ctx, "released@cikyc.example", "correct horse battery")
		s.NoError(err)
	})

	s.Run("inactive profile is forbidden", func() {
		user := s.seedAccount("inactive@cikyc.example", "correct horse battery", usermodels.RoleAgent)
		s.Require().NoError(s.users.SetActive(s.ctx, user.ID, false))

		_, err := s.svc.Login(s.ctx, "inactive@cikyc.example", "correct horse battery")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unconfirmed email is unauthorized", func() {
		user := s.seedAccount("unconfirmed@cikyc.example", "correct horse battery", usermodels.RoleAgent)
		s.Require().NoError(s.identities.DeleteByUserID(s.ctx, user.ID))
		identity, err := identitymodels.NewIdentity(id.NewIdentityID(), user.ID, "unconfirmed@cikyc.example", "correct horse battery", s.now)
		s.Require().NoError(err)
		identity.EmailConfirmed = false
		s.Require().NoError(s.identities.Create(s.ctx, identity))

		_, err = s.svc.Login(s.ctx, "unconfirmed@cikyc.example", "correct horse battery")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AuthSuite) TestLoginLockout() {
	s.seedAccount("agent@cikyc.example", "correct horse battery", usermodels.RoleAgent)

	s.Run("repeated failures lock the account", func() {
		for i := 0; i < 5; i++ {
			_, err := s.svc.Login(s.ctx, "agent@cikyc.example", "wrong")
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		}

		_, err := s.svc.Login(s.ctx, "agent@cikyc.example", "correct horse battery")
		s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
	})

	s.Run("lock expires with time", func() {
		later := requestcontext.WithTime(context.Background(), s.now.Add(16*time.Minute))
		_, err := s.svc.Login(later, "agent@cikyc.example", "correct horse battery")
		s.NoError(err)
	})

	s.Run("successful login clears earlier failures", func() {
		for i := 0; i < 4; i++ {
			_, err := s.svc.Login(s.ctx, "agent@cikyc.example", "wrong")
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		}
		_, err := s.svc.Login(s.ctx, "agent@cikyc.example", "correct horse battery")
		s.Require().NoError(err)

		_, err = s.svc.Login(s.ctx, "agent@cikyc.example", "wrong")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown emails are locked out too", func() {
		for i := 0; i < 5; i++ {
			_, err := s.svc.Login(s.ctx, "ghost@cikyc.example", "anything")
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		}
		_, err := s.svc.Login(s.ctx, "ghost@cikyc.example", "anything")
		s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
	})
}

// authedCtx simulates what RequireAuth puts into the context for a logged-in
// user.
func (s *AuthSuite) authedCtx(user *usermodels.User, tokenID string) context.Context {
	ctx := requestcontext.WithUserID(s.ctx, user.ID)
	ctx = requestcontext.WithEmail(ctx, user.Email)
	ctx = requestcontext.WithRole(ctx, string(user.Role))
	return requestcontext.WithTokenID(ctx, tokenID)
}

func (s *AuthSuite) login(email, password string) (*LoginResult, string) {
	result, err := s.svc.Login(s.ctx, email, password)
	s.Require().NoError(err)
	claims, err := s.jwtService.ValidateToken(result.Token)
	s.Require().NoError(err)
	return result, claims.ID
}

func (s *AuthSuite) TestMe() {
	user := s.seedAccount("agent@cikyc.example", "correct horse battery", usermodels.RoleAgent)
	_, tokenID := s.login("agent@cikyc.example", "correct horse battery")
	ctx := s.authedCtx(user, tokenID)

	s.Run("served from session cache", func() {
		me, err := s.svc.Me(ctx)
		s.Require().NoError(err)
		s.Equal(user.ID, me.ID)
		s.Equal(user.Email, me.Email)
	})

	s.Run("registry miss falls back to profile store", func() {
		s.Require().NoError(s.sessions.Delete(s.ctx, tokenID))

		me, err := s.svc.Me(ctx)
		s.Require().NoError(err)
		s.Equal(user.ID, me.ID)

		// The fallback re-registers the session.
		_, err = s.sessions.Get(s.ctx, tokenID)
		s.NoError(err)
	})

	s.Run("deactivated account is forbidden once the cache misses", func() {
		s.Require().NoError(s.users.SetActive(s.ctx, user.ID, false))
		s.Require().NoError(s.sessions.Delete(s.ctx, tokenID))

		_, err := s.svc.Me(ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("missing auth context", func() {
		_, err := s.svc.Me(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AuthSuite) TestLogout() {
	user := s.seedAccount("agent@cikyc.example", "correct horse battery", usermodels.RoleAgent)
	_, tokenID := s.login("agent@cikyc.example", "correct horse battery")
	ctx := s.authedCtx(user, tokenID)

	s.Require().NoError(s.svc.Logout(ctx))

	_, err := s.sessions.Get(s.ctx, tokenID)
	s.Error(err)

	// Idempotent.
	s.NoError(s.svc.Logout(ctx))

	// Without auth context logout is rejected.
	s.True(dErrors.HasCode(s.svc.Logout(s.ctx), dErrors.CodeUnauthorized))
}
