package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/siterag/internal/auth"
	"github.com/sha1n/siterag/internal/config"
	"github.com/sha1n/siterag/internal/metrics"
)

// ShutdownTimeout bounds the graceful shutdown of the SSE server.
const ShutdownTimeout = 5 * time.Second

// StartSSEServer runs the SSE server until ctx is done, then shuts it down.
func StartSSEServer(ctx context.Context, s *mcp.Server, settings *config.Settings, m *metrics.Metrics) error {
	srv, err := NewSSEServer(s, settings, m)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening (HTTP)", "addr", srv.Addr, "auth_type", settings.Auth.Type)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewSSEServer creates the SSE server with authentication middleware.
// /health is public, /sse and /metrics require credentials when auth is on.
func NewSSEServer(s *mcp.Server, settings *config.Settings, m *metrics.Metrics) (*http.Server, error) {
	// Factory function returns the server instance for each request
	sseHandler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
		return s
	}, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/sse", sseHandler)

	authMiddleware, err := auth.NewMiddleware(settings.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth middleware: %w", err)
	}

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", settings.Host, settings.Port),
		Handler:           authMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}
