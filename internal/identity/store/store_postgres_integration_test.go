//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cikyc/internal/identity/models"
	usermodels "cikyc/internal/user/models"
	userstore "cikyc/internal/user/store"
	id "cikyc/pkg/domain"
	"cikyc/pkg/platform/sentinel"
	"cikyc/pkg/testutil/containers"
)

type IdentityStorePostgresSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
	users *userstore.Postgres
	ctx   context.Context
}

func (s *IdentityStorePostgresSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.users = userstore.NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *IdentityStorePostgresSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(s.ctx))
}

func TestIdentityStorePostgresSuite(t *testing.T) {
	suite.Run(t, new(IdentityStorePostgresSuite))
}

// seedIdentity creates the owning profile row first; identities reference
// users by foreign key.
func (s *IdentityStorePostgresSuite) seedIdentity(email string) *models.Identity {
	now := time.Now().UTC()

	user, err := usermodels.NewUser(id.NewUserID(), email, "Test User", usermodels.RoleAgent, now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(s.ctx, user))

	identity, err := models.NewIdentity(id.NewIdentityID(), user.ID, email, "correct horse battery", now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, identity))
	return identity
}

func (s *IdentityStorePostgresSuite) TestCreateAndFindRoundTrip() {
	identity := s.seedIdentity("agent@example.com")

	got, err := s.store.FindByEmail(s.ctx, "agent@example.com")
	s.Require().NoError(err)
	s.Equal(identity.ID, got.ID)
	s.Equal(identity.UserID, got.UserID)
	s.True(got.EmailConfirmed)
	s.Nil(got.SuspendedUntil)
	s.True(got.CheckPassword("correct horse battery"))

	s.Run("email lookup is case-insensitive", func() {
		got, err := s.store.FindByEmail(s.ctx, "AGENT@Example.COM")
		s.Require().NoError(err)
		s.Equal(identity.ID, got.ID)
	})

	s.Run("unknown email", func() {
		_, err := s.store.FindByEmail(s.ctx, "nobody@example.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *IdentityStorePostgresSuite) TestCreateDuplicateEmailConflicts() {
	identity := s.seedIdentity("taken@example.com")

	dup, err := models.NewIdentity(id.NewIdentityID(), identity.UserID, "TAKEN@example.com", "another password", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
}

func (s *IdentityStorePostgresSuite) TestSetSuspendedUntilRoundTrip() {
	identity := s.seedIdentity("suspend@example.com")
	until := time.Date(2125, 6, 1, 0, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.SetSuspendedUntil(s.ctx, identity.UserID, &until))
	got, err := s.store.FindByEmail(s.ctx, "suspend@example.com")
	s.Require().NoError(err)
	s.Require().NotNil(got.SuspendedUntil)
	s.True(got.SuspendedUntil.Equal(until))

	s.Require().NoError(s.store.SetSuspendedUntil(s.ctx, identity.UserID, nil))
	got, err = s.store.FindByEmail(s.ctx, "suspend@example.com")
	s.Require().NoError(err)
	s.Nil(got.SuspendedUntil)

	s.Run("unknown user id", func() {
		err := s.store.SetSuspendedUntil(s.ctx, id.NewUserID(), &until)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *IdentityStorePostgresSuite) TestDeleteByUserID() {
	identity := s.seedIdentity("gone@example.com")

	s.Require().NoError(s.store.DeleteByUserID(s.ctx, identity.UserID))

	_, err := s.store.FindByEmail(s.ctx, "gone@example.com")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Run("deleting twice", func() {
		err := s.store.DeleteByUserID(s.ctx, identity.UserID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *IdentityStorePostgresSuite) TestProfileDeleteCascades() {
	identity := s.seedIdentity("cascade@example.com")

	s.Require().NoError(s.users.Delete(s.ctx, identity.UserID))

	_, err := s.store.FindByEmail(s.ctx, "cascade@example.com")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
