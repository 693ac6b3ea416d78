package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"cikyc/internal/verification/models"
	id "cikyc/pkg/domain"
	"cikyc/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded in-memory store used by unit tests and local
// development. It mirrors the Postgres store's semantics, including the
// session-id uniqueness constraint.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.RecordID]*models.VerificationRecord
	// insertion order, used to break ties deterministically
	order  []id.RecordID
	logger *slog.Logger
}

func NewInMemory(logger *slog.Logger) *InMemory {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemory{
		records: make(map[id.RecordID]*models.VerificationRecord),
		logger:  logger,
	}
}

func (s *InMemory) Create(_ context.Context, rec *models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.records {
		if existing.SessionID == rec.SessionID {
			return sentinel.ErrConflict
		}
	}

	clone := *rec
	s.records[rec.ID] = &clone
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *InMemory) ListByOwnerScope(_ context.Context, ownerEmail string, includeAll bool) ([]*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.VerificationRecord, 0, len(s.records))
	for _, recordID := range s.order {
		rec, ok := s.records[recordID]
		if !ok {
			continue
		}
		if !includeAll && rec.AgentEmail != ownerEmail {
			continue
		}
		clone := *rec
		out = append(out, &clone)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SentAt.After(out[j].SentAt)
	})
	return out, nil
}

func (s *InMemory) FindBySessionID(_ context.Context, sessionID string) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, recordID := range s.order {
		if rec, ok := s.records[recordID]; ok && rec.SessionID == sessionID {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByID(_ context.Context, recordID id.RecordID) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *InMemory) UpdateStatus(_ context.Context, sessionID string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []*models.VerificationRecord
	for _, recordID := range s.order {
		if rec, ok := s.records[recordID]; ok && rec.SessionID == sessionID {
			matches = append(matches, rec)
		}
	}
	if len(matches) == 0 {
		return sentinel.ErrNotFound
	}
	if len(matches) > 1 {
		// Data-integrity anomaly: the uniqueness constraint should make this
		// impossible. Update exactly one deterministic target.
		s.logger.Warn("duplicate verification records for session id",
			"session_id", sessionID,
			"matches", len(matches),
		)
	}
	matches[0].Status = status
	return nil
}

func (s *InMemory) SetDownloaded(_ context.Context, recordID id.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordID]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.Downloaded = true
	return nil
}

func (s *InMemory) Delete(_ context.Context, recordID id.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[recordID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, recordID)
	return nil
}
