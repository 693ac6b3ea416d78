package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"cikyc/internal/email"
	"cikyc/internal/platform/metrics"
	"cikyc/internal/provider/didit"
	usermodels "cikyc/internal/user/models"
	"cikyc/internal/verification/filter"
	"cikyc/internal/verification/models"
	id "cikyc/pkg/domain"
	dErrors "cikyc/pkg/domain-errors"
	"cikyc/pkg/platform/sentinel"
	"cikyc/pkg/requestcontext"
)

// SessionClient is the slice of the provider client the service needs.
type SessionClient interface {
	CreateSession(ctx context.Context) (*didit.Session, error)
	GenerateReport(ctx context.Context, sessionID string) ([]byte, error)
}

// Store mirrors the verification store operations the service uses.
type Store interface {
	Create(ctx context.Context, rec *models.VerificationRecord) error
	ListByOwnerScope(ctx context.Context, ownerEmail string, includeAll bool) ([]*models.VerificationRecord, error)
	FindByID(ctx context.Context, recordID id.RecordID) (*models.VerificationRecord, error)
	SetDownloaded(ctx context.Context, recordID id.RecordID) error
	Delete(ctx context.Context, recordID id.RecordID) error
}

// Subject is the person a verification link is generated for.
type Subject struct {
	Name  string
	Phone string
	Email string
}

// Service orchestrates the verification-session lifecycle: session creation
// with the provider, record persistence, scoped listing, report fetching,
// and link delivery by email.
type Service struct {
	provider SessionClient
	store    Store
	sender   email.Sender
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func New(provider SessionClient, store Store, sender email.Sender, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		provider: provider,
		store:    store,
		sender:   sender,
		logger:   logger,
		metrics:  m,
	}
}

// GenerateLink validates the subject, opens a provider session, and persists
// one verification record owned by the authenticated caller. The session must
// succeed before anything is persisted; a persistence failure after session
// creation leaves an unrecorded provider session, which is logged as a known
// partial-success edge case and never self-healed.
func (s *Service) GenerateLink(ctx context.Context, subject Subject) (*models.VerificationRecord, error) {
	if err := validateSubject(subject); err != nil {
		return nil, err
	}

	agentEmail := requestcontext.Email(ctx)
	if agentEmail == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication context missing")
	}
	agentName := requestcontext.DisplayName(ctx)
	if agentName == "" {
		agentName = agentEmail
	}

	session, err := s.provider.CreateSession(ctx)
	if err != nil {
		return nil, providerError(err, "could not create verification session")
	}
	if s.metrics != nil {
		s.metrics.SessionsCreated.Inc()
	}

	rec, err := models.NewVerificationRecord(
		id.NewRecordID(),
		strings.TrimSpace(subject.Name),
		strings.TrimSpace(subject.Phone),
		strings.TrimSpace(subject.Email),
		agentEmail,
		agentName,
		session.SessionID,
		session.URL,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, rec); err != nil {
		// The provider session exists but was never recorded. The agent holds
		// a URL with no backing row; log loudly, do not attempt repair.
		s.logger.ErrorContext(ctx, "verification session created but record insert failed",
			"session_id", session.SessionID,
			"agent_email", agentEmail,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a record for this provider session already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification record")
	}

	return rec, nil
}

// List returns the caller's visible records, filtered by the selected status
// labels (display or canonical) and search text. Elevated roles see every
// agent's records.
func (s *Service) List(ctx context.Context, statusLabels []string, search string) ([]*models.VerificationRecord, error) {
	ownerEmail := requestcontext.Email(ctx)
	includeAll := usermodels.IsElevatedRole(requestcontext.Role(ctx))

	records, err := s.store.ListByOwnerScope(ctx, ownerEmail, includeAll)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification records")
	}

	return filter.Filter(records, filter.ExpandLabels(statusLabels), search), nil
}

// Delete removes a record permanently. Authorization (elevated role) is
// enforced at the transport layer.
func (s *Service) Delete(ctx context.Context, recordID id.RecordID) error {
	if err := s.store.Delete(ctx, recordID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "verification record not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete verification record")
	}
	return nil
}

// Report is a fetched provider report plus its suggested filename.
type Report struct {
	Filename string
	Data     []byte
}

// FetchReport proxies the provider's PDF generation for a record in the
// caller's scope. It does not gate on status; the provider decides whether a
// report is ready. The downloaded flag is advisory: a failure to set it is
// logged, not surfaced.
func (s *Service) FetchReport(ctx context.Context, recordID id.RecordID) (*Report, error) {
	rec, err := s.findInScope(ctx, recordID)
	if err != nil {
		return nil, err
	}

	data, err := s.provider.GenerateReport(ctx, rec.SessionID)
	if err != nil {
		return nil, providerError(err, "could not generate verification report")
	}
	if s.metrics != nil {
		s.metrics.ReportsFetched.Inc()
	}

	if err := s.store.SetDownloaded(ctx, rec.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to mark report downloaded",
			"record_id", rec.ID.String(),
			"error", err.Error(),
		)
	}

	return &Report{
		Filename: fmt.Sprintf("kyc-report-%s.pdf", rec.SessionID),
		Data:     data,
	}, nil
}

// SendLinkEmail delivers the record's verification URL to its subject.
// Delivery failure never rolls back the record.
func (s *Service) SendLinkEmail(ctx context.Context, recordID id.RecordID) error {
	rec, err := s.findInScope(ctx, recordID)
	if err != nil {
		return err
	}

	if err := s.sender.SendVerificationLink(ctx, rec.SubjectEmail, rec.SubjectName, rec.VerificationURL); err != nil {
		s.logger.WarnContext(ctx, "verification email delivery failed",
			"record_id", rec.ID.String(),
			"error", err.Error(),
		)
		return err
	}
	if s.metrics != nil {
		s.metrics.EmailsSent.Inc()
	}
	return nil
}

// findInScope loads a record and enforces owner visibility: non-elevated
// callers may only touch records they own.
func (s *Service) findInScope(ctx context.Context, recordID id.RecordID) (*models.VerificationRecord, error) {
	rec, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification record")
	}

	if !usermodels.IsElevatedRole(requestcontext.Role(ctx)) && rec.AgentEmail != requestcontext.Email(ctx) {
		// Hide the record's existence from other agents.
		return nil, dErrors.New(dErrors.CodeNotFound, "verification record not found")
	}
	return rec, nil
}

func validateSubject(subject Subject) error {
	if strings.TrimSpace(subject.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(subject.Phone) == "" {
		return dErrors.New(dErrors.CodeValidation, "phone is required")
	}
	addr := strings.TrimSpace(subject.Email)
	if addr == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return dErrors.New(dErrors.CodeValidation, "email is not valid")
	}
	return nil
}

func providerError(err error, message string) error {
	var pErr *didit.ProviderError
	if errors.As(err, &pErr) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable,
			fmt.Sprintf("%s (provider status %d)", message, pErr.StatusCode))
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, message)
}
