package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cikyc/internal/platform/middleware"
	"cikyc/internal/user/models"
	"cikyc/internal/user/service"
	id "cikyc/pkg/domain"
	dErrors "cikyc/pkg/domain-errors"
	"cikyc/pkg/platform/httputil"
	"cikyc/pkg/requestcontext"
)

// Service defines the account operations the handler depends on.
type Service interface {
	CreateAccount(ctx context.Context, input service.CreateAccountInput) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	SetActive(ctx context.Context, userID id.UserID, active bool) (*models.User, error)
	Delete(ctx context.Context, userID id.UserID) error
}

// Handler wires account management endpoints to the user service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a user handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts account management endpoints. The whole group is restricted
// to elevated roles.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(middleware.RequireElevated(models.IsElevatedRole, h.logger))
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Patch("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// HandleCreate handles POST /admin/users requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	user, err := h.service.CreateAccount(ctx, req.Input())
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			h.logger.ErrorContext(ctx, "account creation failed",
				"request_id", requestID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, user)
}

// HandleList handles GET /admin/users requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "account listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if users == nil {
		users = []*models.User{}
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// HandleUpdate handles PATCH /admin/users/{id} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	user, err := h.service.SetActive(ctx, userID, *req.Active)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "account update failed",
				"request_id", requestID,
				"user_id", userID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// HandleDelete handles DELETE /admin/users/{id} requests. The default is a
// soft delete that only disables the account; the row is removed only when
// the caller asks for it with ?hard=true.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if r.URL.Query().Get("hard") != "true" {
		if _, err := h.service.SetActive(ctx, userID, false); err != nil {
			if !dErrors.HasCode(err, dErrors.CodeNotFound) {
				h.logger.ErrorContext(ctx, "account disable failed",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", userID,
					"error", err,
				)
			}
			httputil.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.service.Delete(ctx, userID); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "account deletion failed",
				"request_id", requestcontext.RequestID(ctx),
				"user_id", userID,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
