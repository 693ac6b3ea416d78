package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"cikyc/internal/user/models"
	id "cikyc/pkg/domain"
	"cikyc/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded in-memory store used by unit tests and local
// development. Email uniqueness is case-insensitive, matching the Postgres
// store's lower(email) index.
type InMemory struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
	order []id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[id.UserID]*models.User)}
}

func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return sentinel.ErrConflict
		}
	}

	clone := *user
	s.users[user.ID] = &clone
	s.order = append(s.order, user.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, userID := range s.order {
		if user, ok := s.users[userID]; ok && strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.User, 0, len(s.users))
	for _, userID := range s.order {
		if user, ok := s.users[userID]; ok {
			clone := *user
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) SetActive(_ context.Context, userID id.UserID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	user.Active = active
	return nil
}

func (s *InMemory) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.users, userID)
	return nil
}
