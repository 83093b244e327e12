// Package server implements the HTTP and MCP server for crosscli serve.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crosscli/go-crosscli/internal/crosscli"
)

// ErrInvalidConfiguration is returned when server options conflict.
var ErrInvalidConfiguration = errors.New("invalid server configuration")

// Mode specifies how the server should run.
type Mode int

const (
	// ModeHTTPOnly serves only the REST API over HTTP.
	ModeHTTPOnly Mode = iota
	// ModeMCPStdio runs only MCP over stdin/stdout.
	ModeMCPStdio
	// ModeCombined serves the REST API over HTTP alongside MCP tools.
	ModeCombined
)

// Config holds server configuration.
type Config struct {
	Mode Mode
	Port int
	Host string

	// ScanTimeout bounds each adapter scan triggered by a request.
	ScanTimeout time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Mode:        ModeCombined,
		Port:        7465,
		Host:        "localhost",
		ScanTimeout: crosscli.DefaultScanTimeout,
	}
}

// HTTPServer serves the REST API.
type HTTPServer struct {
	registry *crosscli.Registry
	router   chi.Router
	config   Config
}

// NewHTTPServer creates a new HTTP server for the REST API.
func NewHTTPServer(registry *crosscli.Registry, config Config) *HTTPServer {
	s := &HTTPServer{
		registry: registry,
		config:   config,
	}
	s.router = s.setupRouter()
	return s
}

// setupRouter configures all routes.
func (s *HTTPServer) setupRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(corsMiddleware)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/adapters", s.handleGetAdapters)
		r.Get("/sessions", s.handleGetSessions)
		r.Get("/sessions/{cli}/{sessionID}/context", s.handleGetContext)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>crosscli</title></head>
<body>
<h1>crosscli server</h1>
<p>API available at <a href="/api/v1/adapters">/api/v1/adapters</a></p>
</body>
</html>`))
	})

	return r
}

// Router returns the chi router for combining with other servers.
func (s *HTTPServer) Router() chi.Router {
	return s.router
}

// Addr returns the server address.
func (s *HTTPServer) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// ListenAndServe starts the HTTP server.
func (s *HTTPServer) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr(),
		Handler: s.router,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	// Update port if it was auto-assigned
	if s.config.Port == 0 {
		s.config.Port = ln.Addr().(*net.TCPAddr).Port
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("HTTP server running at http://%s\n", s.Addr())
	return srv.Serve(ln)
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// scan runs a registry scan with the configured timeout and records
// metrics for it.
func (s *HTTPServer) scan(ctx context.Context, sources []crosscli.Source) (*crosscli.ScanResult, error) {
	start := time.Now()
	result, err := crosscli.Scan(ctx, s.registry, crosscli.ScanOptions{
		Sources: sources,
		Timeout: s.config.ScanTimeout,
	})
	observeScan(result, err, time.Since(start))
	return result, err
}
