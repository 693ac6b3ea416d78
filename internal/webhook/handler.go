// Package webhook receives provider status callbacks and reconciles them into
// verification records. The wire contract (headers, response bodies, status
// codes) belongs to the provider and is fixed; it intentionally does not share
// the dashboard API's error envelope.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"cikyc/internal/platform/metrics"
	"cikyc/internal/verification/models"
	"cikyc/pkg/platform/sentinel"
	"cikyc/pkg/requestcontext"
)

// maxSkew bounds how far a webhook's timestamp may drift from server time in
// either direction before the delivery is treated as a replay.
const maxSkew = 5 * time.Minute

// maxBodyBytes caps webhook payloads; provider callbacks are small.
const maxBodyBytes = 64 << 10

// Store is the slice of the verification store the receiver needs.
type Store interface {
	UpdateStatus(ctx context.Context, sessionID string, status models.Status) error
}

// Handler verifies and applies provider status callbacks.
type Handler struct {
	store   Store
	secret  []byte
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs a webhook handler. An empty secret disables signature
// verification (fail-open) and is logged at startup by the caller.
func New(store Store, secret string, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		store:   store,
		secret:  []byte(secret),
		logger:  logger,
		metrics: m,
	}
}

// Register mounts the webhook endpoints. These routes sit outside the
// authenticated API surface: the signature is the authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhook/didit", h.HandleCallback)
	r.Get("/webhook/didit", h.HandleLiveness)
}

// HandleLiveness answers the provider's endpoint probe.
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "didit webhook endpoint",
	})
}

type callbackPayload struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// HandleCallback handles POST /webhook deliveries.
//
// Order matters: the signature is checked over the raw body before any
// parsing, then the timestamp window, then the payload. A delivery that fails
// signature or freshness gets a 401 and is never parsed.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.reject(ctx, w, http.StatusBadRequest, "unreadable body", "read_error", requestID)
		return
	}

	if !h.verifySignature(ctx, body, r.Header.Get("X-Signature"), requestID) {
		h.reject(ctx, w, http.StatusUnauthorized, "invalid signature", "bad_signature", requestID)
		return
	}

	if !h.verifyTimestamp(r.Header.Get("X-Timestamp"), requestcontext.Now(ctx)) {
		h.reject(ctx, w, http.StatusUnauthorized, "stale or invalid timestamp", "stale_timestamp", requestID)
		return
	}

	var payload callbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.reject(ctx, w, http.StatusBadRequest, "invalid JSON payload", "bad_payload", requestID)
		return
	}
	if payload.SessionID == "" {
		h.reject(ctx, w, http.StatusBadRequest, "session_id is required", "bad_payload", requestID)
		return
	}
	if payload.Status == "" {
		h.reject(ctx, w, http.StatusBadRequest, "status is required", "bad_payload", requestID)
		return
	}
	// The provider owns its status vocabulary; values outside the known set
	// are stored verbatim and the dashboard falls back to the raw string for
	// display. Rejecting them would drop real lifecycle transitions.
	status := models.Status(payload.Status)
	if !status.Valid() {
		h.logger.WarnContext(ctx, "webhook carries unrecognized status",
			"request_id", requestID,
			"session_id", payload.SessionID,
			"status", payload.Status,
		)
	}

	if h.metrics != nil {
		h.metrics.WebhooksReceived.Inc()
	}

	if err := h.store.UpdateStatus(ctx, payload.SessionID, status); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			h.reject(ctx, w, http.StatusNotFound, "no record for session", "unknown_session", requestID)
			return
		}
		h.logger.ErrorContext(ctx, "webhook status update failed",
			"request_id", requestID,
			"session_id", payload.SessionID,
			"error", err.Error(),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "failed to update status"})
		return
	}

	if h.metrics != nil {
		h.metrics.WebhooksApplied.Inc()
	}
	h.logger.InfoContext(ctx, "webhook status applied",
		"request_id", requestID,
		"session_id", payload.SessionID,
		"status", string(status),
	)

	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "status updated",
		"session_id": payload.SessionID,
		"status":     string(status),
	})
}

// verifySignature checks the HMAC-SHA256 hex signature over the raw body.
// With no configured secret verification is skipped, with a warning per
// delivery so a misconfigured deployment is visible in logs.
func (h *Handler) verifySignature(ctx context.Context, body []byte, signature, requestID string) bool {
	if len(h.secret) == 0 {
		h.logger.WarnContext(ctx, "webhook secret not configured, accepting unsigned delivery",
			"request_id", requestID,
		)
		return true
	}
	if signature == "" {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}

// verifyTimestamp accepts an RFC 3339 time or a Unix-seconds integer and
// enforces the replay window against the request-scoped clock.
func (h *Handler) verifyTimestamp(raw string, now time.Time) bool {
	if len(h.secret) == 0 {
		// Unsigned mode skips freshness too: without a secret the header is
		// unauthenticated noise.
		return true
	}
	if raw == "" {
		return false
	}

	var ts time.Time
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		ts = parsed
	} else if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil {
		ts = time.Unix(epoch, 0)
	} else {
		return false
	}

	skew := now.Sub(ts)
	if skew < 0 {
		skew = -skew
	}
	return skew <= maxSkew
}

func (h *Handler) reject(ctx context.Context, w http.ResponseWriter, status int, message, reason, requestID string) {
	if h.metrics != nil {
		h.metrics.WebhooksRejected.WithLabelValues(reason).Inc()
	}
	h.logger.WarnContext(ctx, "webhook delivery rejected",
		"request_id", requestID,
		"reason", reason,
	)
	writeJSON(w, status, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
