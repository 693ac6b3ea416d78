// Package httptransport assembles the HTTP routing surface: public routes
// (login, webhook, health, metrics) and the authenticated API.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cikyc/internal/auth"
	"cikyc/internal/platform/metrics"
	"cikyc/internal/platform/middleware"
	userhandler "cikyc/internal/user/handler"
	verificationhandler "cikyc/internal/verification/handler"
	"cikyc/internal/webhook"
)

// Deps holds everything the router mounts.
type Deps struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	JWTValidator middleware.JWTValidator

	Auth          *auth.Handler
	Users         *userhandler.Handler
	Verifications *verificationhandler.Handler
	Webhook       *webhook.Handler

	// Health reports readiness of backing services; nil checks are skipped.
	Health func() error
}

// New assembles the router. The webhook routes authenticate by signature, not
// bearer token, so they sit outside the RequireAuth group.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(deps.Metrics, "api"))

	r.Get("/health", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	deps.Webhook.Register(r)
	deps.Auth.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.JWTValidator, deps.Logger))
		deps.Auth.Register(r)
		deps.Users.Register(r)
		deps.Verifications.Register(r)
	})

	return r
}

func healthHandler(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			if err := check(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
