// Package didit is the HTTP client for the Didit identity-verification
// provider. Session creation uses the v2 API; PDF report generation still
// lives on the v1 API.
package didit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cikyc/internal/platform/config"
	"cikyc/pkg/platform/circuit"
)

// ProviderError carries the provider's HTTP status and error body so callers
// can surface both to the user.
type ProviderError struct {
	StatusCode int
	Details    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("didit returned status %d: %s", e.StatusCode, e.Details)
}

// Session is the result of creating a verification session.
type Session struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// errCircuitOpen fails calls fast while the provider is known to be down.
var errCircuitOpen = errors.New("didit circuit open, failing fast")

// Client talks to the Didit API. The API key is a bearer secret and is never
// logged in full. A circuit breaker fails calls fast during provider outages
// instead of holding every dashboard request for the full timeout.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *circuit.Breaker

	apiKey     string
	workflowID string
	vendorData string
	sessionURL string
	reportURL  string
}

func NewClient(cfg config.DiditConfig, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		breaker: circuit.New("didit",
			circuit.WithFailureThreshold(5),
			circuit.WithCooldown(30*time.Second)),
		apiKey:     cfg.APIKey,
		workflowID: cfg.WorkflowID,
		vendorData: cfg.VendorData,
		sessionURL: cfg.SessionURL,
		reportURL:  cfg.ReportURL,
	}
}

// send runs a request through the circuit breaker. Transport errors and 5xx
// responses count against the provider; 4xx responses are request problems
// and leave the circuit alone.
func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	if !c.breaker.Allow() {
		return nil, errCircuitOpen
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(ctx)
		return nil, err
	}
	if resp.StatusCode >= 500 {
		c.recordFailure(ctx)
	} else {
		c.recordSuccess(ctx)
	}
	return resp, nil
}

func (c *Client) recordFailure(ctx context.Context) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "provider circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "provider circuit closed", "breaker", c.breaker.Name())
	}
}

type createSessionRequest struct {
	WorkflowID string `json:"workflow_id"`
	VendorData string `json:"vendor_data"`
}

// CreateSession opens a new verification session. A single attempt: transport
// failure or a non-2xx status is returned to the caller, who must not persist
// a record for a session that was never created.
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	body, err := json.Marshal(createSessionRequest{
		WorkflowID: c.workflowID,
		VendorData: c.vendorData,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sessionURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call didit session endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read didit session response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WarnContext(ctx, "didit session creation failed",
			"status", resp.StatusCode,
			"workflow_id", c.workflowID,
		)
		return nil, &ProviderError{StatusCode: resp.StatusCode, Details: string(respBody)}
	}

	var session Session
	if err := json.Unmarshal(respBody, &session); err != nil {
		return nil, fmt.Errorf("decode didit session response: %w", err)
	}
	if session.URL == "" || session.SessionID == "" {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Details: "response missing url or session_id"}
	}
	return &session, nil
}

// GenerateReport fetches the rendered PDF report for a completed session.
// Provider errors surface with their status and error body intact.
func (c *Client) GenerateReport(ctx context.Context, sessionID string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/generate-pdf", strings.TrimSuffix(c.reportURL, "/"), sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call didit report endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read didit report response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WarnContext(ctx, "didit report generation failed",
			"status", resp.StatusCode,
			"session_id", sessionID,
		)
		return nil, &ProviderError{StatusCode: resp.StatusCode, Details: string(respBody)}
	}

	return respBody, nil
}
