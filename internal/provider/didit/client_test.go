package didit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cikyc/internal/platform/config"
)

func testClient(sessionURL, reportURL string) *Client {
	return NewClient(config.DiditConfig{
		APIKey:     "test-api-key",
		WorkflowID: "wf-123",
		VendorData: "c-ikyc-app",
		SessionURL: sessionURL,
		ReportURL:  reportURL,
	}, slog.Default())
}

func TestCreateSession(t *testing.T) {
	t.Run("sends workflow and api key, decodes session", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))

			var req createSessionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "wf-123", req.WorkflowID)
			assert.Equal(t, "c-ikyc-app", req.VendorData)

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"url":        "https://verify.didit.me/s/abc123",
				"session_id": "abc123",
			})
		}))
		defer srv.Close()

		session, err := testClient(srv.URL, srv.URL).CreateSession(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc123", session.SessionID)
		assert.Equal(t, "https://verify.didit.me/s/abc123", session.URL)
	})

	t.Run("non-2xx surfaces provider error with body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"detail":"workflow not allowed"}`))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL, srv.URL).CreateSession(context.Background())
		var pErr *ProviderError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, http.StatusForbidden, pErr.StatusCode)
		assert.Contains(t, pErr.Details, "workflow not allowed")
	})

	t.Run("missing session_id in response is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"url":"https://verify.didit.me/s/x"}`))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL, srv.URL).CreateSession(context.Background())
		var pErr *ProviderError
		require.ErrorAs(t, err, &pErr)
	})

	t.Run("transport failure is not a provider error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close() // connection refused

		_, err := testClient(srv.URL, srv.URL).CreateSession(context.Background())
		require.Error(t, err)
		var pErr *ProviderError
		assert.False(t, errors.As(err, &pErr))
	})
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("repeated provider outages fail fast without calling out", func(t *testing.T) {
		var hits int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := testClient(srv.URL, srv.URL)
		for i := 0; i < 5; i++ {
			_, err := client.CreateSession(context.Background())
			require.Error(t, err)
		}
		assert.Equal(t, 5, hits)

		_, err := client.CreateSession(context.Background())
		require.ErrorIs(t, err, errCircuitOpen)
		assert.Equal(t, 5, hits, "open circuit must not reach the provider")
	})

	t.Run("client errors do not open the circuit", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		client := testClient(srv.URL, srv.URL)
		for i := 0; i < 10; i++ {
			_, err := client.CreateSession(context.Background())
			require.Error(t, err)
		}
		assert.False(t, client.breaker.IsOpen())
	})
}

func TestGenerateReport(t *testing.T) {
	t.Run("fetches pdf bytes for session", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/abc123/generate-pdf", r.URL.Path)
			assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4 fake"))
		}))
		defer srv.Close()

		data, err := testClient(srv.URL, srv.URL).GenerateReport(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4 fake"), data)
	})

	t.Run("report not ready surfaces provider status and details", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"detail":"session not completed"}`))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL, srv.URL).GenerateReport(context.Background(), "abc123")
		var pErr *ProviderError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, http.StatusConflict, pErr.StatusCode)
		assert.Contains(t, pErr.Details, "session not completed")
	})
}
