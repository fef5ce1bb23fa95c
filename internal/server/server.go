// Package server exposes a studio session over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sanonone/lightpath/pkg/engine"
)

// maxPhotoBytes caps uploaded photos.
const maxPhotoBytes = 32 << 20

// Server holds the HTTP interface and the session engine.
type Server struct {
	Engine *engine.Engine

	httpServer  *http.Server
	handler     http.Handler
	taskManager *TaskManager
	authToken   string

	// tasks is cancelled on Shutdown so running enhancements stop.
	tasks       context.Context
	cancelTasks context.CancelFunc
}

// NewServer wires the routes around an existing engine. An empty authToken
// disables authentication.
func NewServer(eng *engine.Engine, httpAddr string, authToken string) *Server {
	tasks, cancel := context.WithCancel(context.Background())
	s := &Server{
		Engine:      eng,
		taskManager: NewTaskManager(),
		authToken:   authToken,
		tasks:       tasks,
		cancelTasks: cancel,
	}

	mux := http.NewServeMux()
	s.registerHTTPHandlers(mux)

	// Chain middlewares: Recovery -> Logging -> Auth -> Mux
	// Order matters! Recovery must be outer-most to catch everything.

	var handler http.Handler = mux

	// 1. Auth (Inner)
	handler = s.authMiddleware(handler)

	// 2. Logging (Middle) - Logs duration and status
	handler = s.LoggingMiddleware(handler)

	// 3. Recovery (Outer) - Catches panics
	handler = s.RecoveryMiddleware(handler)

	rootMux := http.NewServeMux()
	rootMux.HandleFunc("GET /healthz", s.handleHealthz)
	rootMux.Handle("GET /metrics", promhttp.Handler())
	rootMux.Handle("/", handler)

	s.handler = rootMux
	s.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           rootMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server startup failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server and cancels running tasks.
// It does NOT close the Engine (main.go handles that for proper lifecycle management).
func (s *Server) Shutdown() {
	slog.Info("Starting graceful shutdown of HTTP Server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	s.cancelTasks()
}
