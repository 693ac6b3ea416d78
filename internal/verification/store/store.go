package store

import (
	"context"

	"cikyc/internal/verification/models"
	id "cikyc/pkg/domain"
)

// Store persists verification records. Implementations return sentinel
// errors (sentinel.ErrNotFound, sentinel.ErrConflict) for infrastructure
// facts; services translate them into domain errors.
type Store interface {
	// Create inserts a record. The caller assigns SentAt/CreatedAt from the
	// request-scoped clock. A duplicate provider session id is a conflict:
	// session ids are assigned exactly once at creation.
	Create(ctx context.Context, rec *models.VerificationRecord) error

	// ListByOwnerScope returns records visible to ownerEmail. When includeAll
	// is true the owner filter is skipped entirely (elevated roles). Matching
	// is exact, case-sensitive equality on the owning agent email. Results
	// are ordered by sent time descending.
	ListByOwnerScope(ctx context.Context, ownerEmail string, includeAll bool) ([]*models.VerificationRecord, error)

	// FindBySessionID returns the record for a provider session id.
	FindBySessionID(ctx context.Context, sessionID string) (*models.VerificationRecord, error)

	// FindByID returns the record with the given id.
	FindByID(ctx context.Context, recordID id.RecordID) (*models.VerificationRecord, error)

	// UpdateStatus overwrites the status of the record with the given provider
	// session id. Any status may overwrite any other; the provider is the
	// authority on transition legality. Zero matches yield ErrNotFound. If a
	// store somehow holds duplicates, exactly one deterministic target (first
	// by primary key) is updated and the anomaly is logged, never multiplied.
	UpdateStatus(ctx context.Context, sessionID string, status models.Status) error

	// SetDownloaded marks the advisory report-downloaded flag.
	SetDownloaded(ctx context.Context, recordID id.RecordID) error

	// Delete removes a record permanently.
	Delete(ctx context.Context, recordID id.RecordID) error
}
