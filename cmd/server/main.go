// Command server runs the KYC operations API: verification-session
// lifecycle, provider webhooks, account management, and authentication.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cikyc/internal/auth"
	"cikyc/internal/auth/lockout"
	"cikyc/internal/auth/sessions"
	"cikyc/internal/email"
	identitystore "cikyc/internal/identity/store"
	jwttoken "cikyc/internal/jwt_token"
	"cikyc/internal/platform/config"
	"cikyc/internal/platform/httpserver"
	"cikyc/internal/platform/logger"
	"cikyc/internal/platform/metrics"
	"cikyc/internal/platform/redis"
	"cikyc/internal/provider/didit"
	"cikyc/internal/storage"
	httptransport "cikyc/internal/transport/http"
	userhandler "cikyc/internal/user/handler"
	userservice "cikyc/internal/user/service"
	userstore "cikyc/internal/user/store"
	verificationhandler "cikyc/internal/verification/handler"
	verificationservice "cikyc/internal/verification/service"
	verificationstore "cikyc/internal/verification/store"
	"cikyc/internal/webhook"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.New()

	// Persistence: PostgreSQL when configured, in-memory otherwise. The
	// in-memory stores lose everything on restart and exist for local runs.
	var (
		users      userstore.Store
		identities identitystore.Store
		records    verificationstore.Store
		health     []func() error
	)
	if cfg.DatabaseDSN != "" {
		db, err := storage.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		users = userstore.NewPostgres(db)
		identities = identitystore.NewPostgres(db)
		records = verificationstore.NewPostgres(db)
		health = append(health, db.Ping)
	} else {
		log.Warn("DATABASE_DSN not set, using in-memory stores")
		users = userstore.NewInMemory()
		identities = identitystore.NewInMemory()
		records = verificationstore.NewInMemory(log)
	}

	// Session registry: Redis when configured, in-process otherwise.
	var sessionStore sessions.Store
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessionStore = sessions.NewRedis(redisClient)
		health = append(health, func() error { return redisClient.Health(context.Background()) })
	} else {
		sessionStore = sessions.NewMemory()
	}

	if cfg.Webhook.Secret == "" {
		log.Warn("webhook secret not configured, signature verification disabled")
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "cikyc")
	provider := didit.NewClient(cfg.Didit, log)
	sender := email.NewSendGridSender(cfg.Email, cfg.Company, log)

	lockoutService := lockout.New(lockout.NewMemory(), log)
	authService := auth.New(identities, users, sessionStore, lockoutService, jwtService, cfg.JWTTTL, log)
	userService := userservice.New(users, identities, log, m)
	verificationService := verificationservice.New(provider, records, sender, log, m)

	router := httptransport.New(httptransport.Deps{
		Logger:        log,
		Metrics:       m,
		JWTValidator:  jwttoken.NewJWTServiceAdapter(jwtService),
		Auth:          auth.NewHandler(authService, log),
		Users:         userhandler.New(userService, log),
		Verifications: verificationhandler.New(verificationService, log),
		Webhook:       webhook.New(records, cfg.Webhook.Secret, log, m),
		Health: func() error {
			for _, check := range health {
				if err := check(); err != nil {
					return err
				}
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
