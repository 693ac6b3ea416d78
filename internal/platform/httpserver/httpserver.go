// Package httpserver builds the dashboard's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with project defaults. The write timeout stays
// generous because report downloads stream provider PDFs; header reads are
// cut short.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}
