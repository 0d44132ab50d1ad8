//go:build !test

/* server.go
 * Contains the HTTP server Start function that listens for incoming
 * connections. Excluded from test coverage as it blocks and requires real
 * network binding.
 */

package web

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Start initializes and starts the HTTP server with the given configuration
func Start(cfg Config) error {
	s := &Server{
		api:    cfg.API,
		logger: cfg.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/export/leaderboard.csv", s.LeaderboardCSVHandler)
	mux.HandleFunc("/export/stale", s.StaleEventsHandler)
	mux.HandleFunc("/healthz", s.HealthHandler)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	s.logger.Info("HTTP server listening", zap.String("addr", cfg.Addr))
	return srv.ListenAndServe()
}
