// Package httpapi is the job façade: an HTTP surface wrapping an
// orchestrator.Orchestrator and a jobstore.Collection behind REST
// endpoints, with routing, graceful shutdown, and origin-check middleware.
package httpapi

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/zerorepo/zerorepo/internal/jobstore"
	"github.com/zerorepo/zerorepo/internal/logging"
	"github.com/zerorepo/zerorepo/internal/orchestrator"
)

// Config wires a Server to its dependencies. The orchestrator itself is
// built by the caller (cmd/zerorepo), since its construction needs the
// real gateway/sandbox wiring this package shouldn't own.
type Config struct {
	Addr string // listen address, e.g. ":8080"

	Jobs jobstore.Collection

	// ReposDir is the base directory each generated job's repository is
	// materialized under (one subdirectory per job id).
	ReposDir string

	// Models lists the model names GET /api/models advertises.
	Models []string
}

// Server is the job façade's HTTP server.
type Server struct {
	cfg     Config
	orch    *orchestrator.Orchestrator
	baseCtx context.Context
	cancel  context.CancelFunc
	httpSrv *http.Server
	metrics *metrics
}

// New builds a Server. orch is pre-built by the caller (cmd/zerorepo),
// since its construction needs the real sandbox/gateway wiring this
// package shouldn't own.
func New(cfg Config, orch *orchestrator.Orchestrator) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{cfg: cfg, orch: orch, baseCtx: ctx, cancel: cancel, metrics: newMetrics()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("POST /api/zerorepo/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/zerorepo/plan", s.handlePlan)
	mux.HandleFunc("GET /api/zerorepo/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/zerorepo/jobs/{id}", s.handleGetJob)

	s.httpSrv = &http.Server{
		Handler:      csrfProtect(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	return s
}

// ListenAndServe starts the server and blocks until shutdown, handling
// SIGINT/SIGTERM for a graceful stop.
func (s *Server) ListenAndServe() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logging.API("httpapi: received shutdown signal")
		s.Shutdown()
	}()

	logging.API("httpapi: listening on %s", s.cfg.Addr)
	s.httpSrv.Addr = s.cfg.Addr
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, letting in-flight requests drain.
func (s *Server) Shutdown() {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	_ = s.httpSrv.Shutdown(shutdownCtx)
	s.cancel()
}

// repoRoot returns the directory a generated job's repository is
// materialized into, creating it if necessary.
func (s *Server) repoRoot(jobID string) (string, error) {
	base := s.cfg.ReposDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// csrfProtect rejects cross-origin POST requests from browsers:
// programmatic/CLI callers either omit Origin or set it to localhost, so
// they pass through untouched.
func csrfProtect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			origin := r.Header.Get("Origin")
			if origin != "" {
				u, err := url.Parse(origin)
				if err != nil {
					writeError(w, http.StatusForbidden, "invalid Origin header")
					return
				}
				host := u.Hostname()
				if host != "localhost" && host != "127.0.0.1" && host != "::1" {
					writeError(w, http.StatusForbidden, "cross-origin request blocked")
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
