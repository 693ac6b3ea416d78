//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cikyc/internal/verification/models"
	id "cikyc/pkg/domain"
	"cikyc/pkg/platform/sentinel"
	"cikyc/pkg/testutil/containers"
)

type RecordStorePostgresSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
	ctx   context.Context
}

func (s *RecordStorePostgresSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *RecordStorePostgresSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(s.ctx))
}

func TestRecordStorePostgresSuite(t *testing.T) {
	suite.Run(t, new(RecordStorePostgresSuite))
}

func (s *RecordStorePostgresSuite) newRecord(sessionID, agentEmail string, sentAt time.Time) *models.VerificationRecord {
	rec, err := models.NewVerificationRecord(id.NewRecordID(),
		"Maria Lopez", "+34600111222", "maria@example.com",
		agentEmail, "Agent Name",
		sessionID, "https://verify.example/"+sessionID, sentAt)
	s.Require().NoError(err)
	return rec
}

func (s *RecordStorePostgresSuite) TestCreateAndFindRoundTrip() {
	sentAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rec := s.newRecord("sess-1", "agent@example.com", sentAt)
	s.Require().NoError(s.store.Create(s.ctx, rec))

	byID, err := s.store.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.SubjectName, byID.SubjectName)
	s.Equal(rec.SubjectPhone, byID.SubjectPhone)
	s.Equal(rec.SubjectEmail, byID.SubjectEmail)
	s.Equal(rec.AgentEmail, byID.AgentEmail)
	s.Equal(rec.VerificationURL, byID.VerificationURL)
	s.Equal(models.StatusNotStarted, byID.Status)
	s.False(byID.Downloaded)
	s.True(byID.SentAt.Equal(sentAt))

	bySession, err := s.store.FindBySessionID(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(rec.ID, bySession.ID)
}

func (s *RecordStorePostgresSuite) TestCreateDuplicateSessionIDConflicts() {
	now := time.Now().UTC()
	s.Require().NoError(s.store.Create(s.ctx, s.newRecord("sess-dup", "a@example.com", now)))

	err := s.store.Create(s.ctx, s.newRecord("sess-dup", "b@example.com", now))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *RecordStorePostgresSuite) TestListByOwnerScope() {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Create(s.ctx, s.newRecord("sess-a1", "alice@example.com", base)))
	s.Require().NoError(s.store.Create(s.ctx, s.newRecord("sess-a2", "alice@example.com", base.Add(2*time.Hour))))
	s.Require().NoError(s.store.Create(s.ctx, s.newRecord("sess-b1", "bob@example.com", base.Add(time.Hour))))

	s.Run("owner sees only own records newest first", func() {
		records, err := s.store.ListByOwnerScope(s.ctx, "alice@example.com", false)
		s.Require().NoError(err)
		s.Require().Len(records, 2)
		s.Equal("sess-a2", records[0].SessionID)
		s.Equal("sess-a1", records[1].SessionID)
	})

	s.Run("matching is case-sensitive on agent email", func() {
		records, err := s.store.ListByOwnerScope(s.ctx, "ALICE@example.com", false)
		s.Require().NoError(err)
		s.Empty(records)
	})

	s.Run("includeAll returns everything ordered by sent time", func() {
		records, err := s.store.ListByOwnerScope(s.ctx, "alice@example.com", true)
		s.Require().NoError(err)
		s.Require().Len(records, 3)
		s.Equal("sess-a2", records[0].SessionID)
		s.Equal("sess-b1", records[1].SessionID)
		s.Equal("sess-a1", records[2].SessionID)
	})
}

func (s *RecordStorePostgresSuite) TestUpdateStatus() {
	rec := s.newRecord("sess-upd", "agent@example.com", time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, rec))

	s.Require().NoError(s.store.UpdateStatus(s.ctx, "sess-upd", models.StatusApproved))

	got, err := s.store.FindBySessionID(s.ctx, "sess-upd")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, got.Status)

	s.Run("unknown session id", func() {
		err := s.store.UpdateStatus(s.ctx, "sess-missing", models.StatusApproved)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *RecordStorePostgresSuite) TestSetDownloaded() {
	rec := s.newRecord("sess-dl", "agent@example.com", time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, rec))

	s.Require().NoError(s.store.SetDownloaded(s.ctx, rec.ID))

	got, err := s.store.FindByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.True(got.Downloaded)

	s.Run("unknown record id", func() {
		err := s.store.SetDownloaded(s.ctx, id.NewRecordID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *RecordStorePostgresSuite) TestDelete() {
	rec := s.newRecord("sess-del", "agent@example.com", time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, rec))

	s.Require().NoError(s.store.Delete(s.ctx, rec.ID))

	_, err := s.store.FindByID(s.ctx, rec.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Run("deleting twice", func() {
		err := s.store.Delete(s.ctx, rec.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}
