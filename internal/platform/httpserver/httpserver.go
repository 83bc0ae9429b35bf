// Package httpserver builds the greencheck API server from config.
package httpserver

import (
	"net/http"
	"time"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/platform/config"
)

// New builds the HTTP server serving greenchecks and provider management.
// Timeouts come from config; the write timeout has to cover an uncached
// check including its delegation walk.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
