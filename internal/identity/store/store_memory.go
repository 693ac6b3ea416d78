package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"cikyc/internal/identity/models"
	id "cikyc/pkg/domain"
	"cikyc/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded in-memory store used by unit tests and local
// development.
type InMemory struct {
	mu         sync.RWMutex
	identities map[id.IdentityID]*models.Identity
	order      []id.IdentityID
}

func NewInMemory() *InMemory {
	return &InMemory{identities: make(map[id.IdentityID]*models.Identity)}
}

func (s *InMemory) Create(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.identities[identity.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.identities {
		if strings.EqualFold(existing.Email, identity.Email) {
			return sentinel.ErrConflict
		}
	}

	clone := cloneIdentity(identity)
	s.identities[identity.ID] = clone
	s.order = append(s.order, identity.ID)
	return nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, identityID := range s.order {
		if identity, ok := s.identities[identityID]; ok && strings.EqualFold(identity.Email, email) {
			return cloneIdentity(identity), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) SetSuspendedUntil(_ context.Context, userID id.UserID, until *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, identity := range s.identities {
		if identity.UserID == userID {
			if until == nil {
				identity.SuspendedUntil = nil
			} else {
				t := *until
				identity.SuspendedUntil = &t
			}
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemory) DeleteByUserID(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for identityID, identity := range s.identities {
		if identity.UserID == userID {
			delete(s.identities, identityID)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func cloneIdentity(identity *models.Identity) *models.Identity {
	clone := *identity
	clone.PasswordHash = append([]byte(nil), identity.PasswordHash...)
	if identity.SuspendedUntil != nil {
		t := *identity.SuspendedUntil
		clone.SuspendedUntil = &t
	}
	return &clone
}
