// Package lockout throttles repeated login failures per account. Five
// failures inside a fifteen-minute window hard-lock the email for fifteen
// minutes; a successful login clears the slate.
package lockout

import (
	"context"
	"log/slog"
	"strings"
	"time"

	dErrors "cikyc/pkg/domain-errors"
	"cikyc/pkg/requestcontext"
)

const (
	defaultAttempts = 5
	defaultWindow   = 15 * time.Minute
	defaultLockFor  = 15 * time.Minute
)

// Record is the failure state for one login identifier.
type Record struct {
	Key           string
	FailureCount  int
	LastFailureAt time.Time
	LockedUntil   *time.Time
}

// Store persists lockout records. Get returns nil for an unknown key.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Put(ctx context.Context, rec *Record) error
	Clear(ctx context.Context, key string) error
}

// Service applies the lockout policy. All reads of the clock go through the
// request context so tests can pin time.
type Service struct {
	store    Store
	logger   *slog.Logger
	attempts int
	window   time.Duration
	lockFor  time.Duration
}

func New(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		logger:   logger,
		attempts: defaultAttempts,
		window:   defaultWindow,
		lockFor:  defaultLockFor,
	}
}

// Check returns a rate-limited error when the identifier is currently locked.
// It runs before the password check so locked accounts cost no bcrypt work.
func (s *Service) Check(ctx context.Context, email string) error {
	rec, err := s.store.Get(ctx, key(email))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load lockout state")
	}
	if rec == nil || rec.LockedUntil == nil {
		return nil
	}

	now := requestcontext.Now(ctx)
	if now.Before(*rec.LockedUntil) {
		retryAfter := int(rec.LockedUntil.Sub(now).Seconds())
		return dErrors.Newf(dErrors.CodeRateLimited,
			"too many failed login attempts, try again in %d seconds", retryAfter)
	}
	return nil
}

// RecordFailure counts a failed credential check. Failures older than the
// window are forgotten; reaching the attempt limit locks the identifier.
func (s *Service) RecordFailure(ctx context.Context, email string) error {
	k := key(email)
	rec, err := s.store.Get(ctx, k)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load lockout state")
	}

	now := requestcontext.Now(ctx)
	expired := rec != nil && rec.LockedUntil != nil && !now.Before(*rec.LockedUntil)
	if rec == nil || expired || now.Sub(rec.LastFailureAt) > s.window {
		rec = &Record{Key: k}
	}

	rec.FailureCount++
	rec.LastFailureAt = now
	if rec.FailureCount >= s.attempts && rec.LockedUntil == nil {
		until := now.Add(s.lockFor)
		rec.LockedUntil = &until
		s.logger.WarnContext(ctx, "login lockout triggered",
			"email", email,
			"failure_count", rec.FailureCount,
			"locked_until", until,
		)
	}

	if err := s.store.Put(ctx, rec); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}
	return nil
}

// Clear forgets all failures for the identifier.
func (s *Service) Clear(ctx context.Context, email string) error {
	if err := s.store.Clear(ctx, key(email)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear lockout state")
	}
	return nil
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
