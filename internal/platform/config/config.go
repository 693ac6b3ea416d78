package config

import (
	"os"
	"time"
)

// Server captures process-level configuration sourced from the environment.
type Server struct {
	Addr          string
	DatabaseDSN   string
	Redis         RedisConfig
	JWTSigningKey string
	JWTTTL        time.Duration

	Didit    DiditConfig
	Email    EmailConfig
	Webhook  WebhookConfig
	Company  string
}

// DiditConfig holds credentials and endpoints for the verification provider.
// The API key is a bearer secret; never log it in full.
type DiditConfig struct {
	APIKey     string
	WorkflowID string
	VendorData string
	SessionURL string
	ReportURL  string
}

// WebhookConfig holds the shared secret used to authenticate provider
// callbacks. An empty secret disables signature verification (fail-open,
// logged as a warning at startup).
type WebhookConfig struct {
	Secret string
}

// EmailConfig holds transactional email delivery settings.
type EmailConfig struct {
	SendGridKey string
	FromAddress string
}

// RedisConfig holds connection settings for the optional session cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CIKYC_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	company := os.Getenv("COMPANY_NAME")
	if company == "" {
		company = "C-IKYC"
	}

	fromAddress := os.Getenv("SENDGRID_FROM_EMAIL")
	if fromAddress == "" {
		fromAddress = "noreply@example.com"
	}

	sessionURL := os.Getenv("DIDIT_SESSION_URL")
	if sessionURL == "" {
		sessionURL = "https://verification.didit.me/v2/session/"
	}
	reportURL := os.Getenv("DIDIT_REPORT_URL")
	if reportURL == "" {
		reportURL = "https://verification.didit.me/v1/session"
	}
	vendorData := os.Getenv("DIDIT_VENDOR_DATA")
	if vendorData == "" {
		vendorData = "c-ikyc-app"
	}

	return Server{
		Addr:          addr,
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		Redis:         redisFromEnv(),
		JWTSigningKey: jwtSigningKey,
		JWTTTL:        12 * time.Hour,
		Didit: DiditConfig{
			APIKey:     os.Getenv("DIDIT_API_KEY"),
			WorkflowID: os.Getenv("DIDIT_WORKFLOW_ID"),
			VendorData: vendorData,
			SessionURL: sessionURL,
			ReportURL:  reportURL,
		},
		Email: EmailConfig{
			SendGridKey: os.Getenv("SENDGRID_API_KEY"),
			FromAddress: fromAddress,
		},
		Webhook: WebhookConfig{
			Secret: os.Getenv("DIDIT_WEBHOOK_SECRET"),
		},
		Company: company,
	}
}

func redisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
