package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"cikyc/internal/platform/middleware"
	usermodels "cikyc/internal/user/models"
	"cikyc/internal/verification/models"
	"cikyc/internal/verification/service"
	id "cikyc/pkg/domain"
	dErrors "cikyc/pkg/domain-errors"
	"cikyc/pkg/platform/httputil"
	pstrings "cikyc/pkg/platform/strings"
	"cikyc/pkg/requestcontext"
)

// Service defines the verification operations the handler depends on.
type Service interface {
	GenerateLink(ctx context.Context, subject service.Subject) (*models.VerificationRecord, error)
	List(ctx context.Context, statusLabels []string, search string) ([]*models.VerificationRecord, error)
	Delete(ctx context.Context, recordID id.RecordID) error
	FetchReport(ctx context.Context, recordID id.RecordID) (*service.Report, error)
	SendLinkEmail(ctx context.Context, recordID id.RecordID) error
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts verification endpoints on the router. Deletion is restricted
// to elevated roles; everything else is scoped per-owner inside the service.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verifications", h.HandleGenerateLink)
	r.Get("/verifications", h.HandleList)
	r.Get("/verifications/{id}/report", h.HandleFetchReport)
	r.Post("/verifications/{id}/email", h.HandleSendEmail)
	r.With(middleware.RequireElevated(usermodels.IsElevatedRole, h.logger)).
		Delete("/verifications/{id}", h.HandleDelete)
}

// HandleGenerateLink handles POST /verifications requests.
func (h *Handler) HandleGenerateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[GenerateLinkRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.GenerateLink(ctx, req.Subject())
	if err != nil {
		h.logger.ErrorContext(ctx, "verification link generation failed",
			"request_id", requestID,
			"agent_email", requestcontext.Email(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification link generated",
		"request_id", requestID,
		"record_id", rec.ID,
		"session_id", rec.SessionID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, rec)
}

// HandleList handles GET /verifications requests. Status labels may be passed
// as repeated status params or comma-separated; Spanish display labels and
// canonical values are both accepted.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var labels []string
	for _, raw := range r.URL.Query()["status"] {
		labels = append(labels, strings.Split(raw, ",")...)
	}
	labels = pstrings.DedupeAndTrim(labels)
	search := r.URL.Query().Get("search")

	records, err := h.service.List(ctx, labels, search)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if records == nil {
		records = []*models.VerificationRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

// HandleDelete handles DELETE /verifications/{id} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, recordID); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "verification deletion failed",
				"request_id", requestcontext.RequestID(ctx),
				"record_id", recordID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification record deleted",
		"request_id", requestcontext.RequestID(ctx),
		"record_id", recordID,
		"deleted_by", requestcontext.Email(ctx),
	)

	w.WriteHeader(http.StatusNoContent)
}

// HandleFetchReport handles GET /verifications/{id}/report requests. The
// response is the provider's PDF, not JSON.
func (h *Handler) HandleFetchReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.FetchReport(ctx, recordID)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification report fetch failed",
			"request_id", requestID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.Data)
}

// HandleSendEmail handles POST /verifications/{id}/email requests.
func (h *Handler) HandleSendEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.SendLinkEmail(ctx, recordID); err != nil {
		h.logger.ErrorContext(ctx, "verification email send failed",
			"request_id", requestID,
			"record_id", recordID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "verification email sent"})
}
