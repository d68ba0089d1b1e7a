// Package server exposes the solver over HTTP.
//
// Routes:
//
//	GET  /healthz                          build info
//	GET  /v1/dimensions?max_bricks=N       dimension search only
//	POST /v1/solve?format=csv|json         body: openings JSON array
//	GET  /v1/runs?limit=N                  stored runs, newest first
//	GET  /v1/runs/{id}                     one stored run with its bricks
//
// The /v1/runs routes exist only when a store is configured. Solve responses
// carry X-Brickshell-Total, X-Brickshell-Active and X-Brickshell-Skipped
// headers; a stored run also gets X-Brickshell-Run.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/brickshell/pkg/pipeline"
	"github.com/matzehuels/brickshell/pkg/store"
)

const (
	DefaultMaxBodyBytes = 1 << 20
	DefaultMaxBricks    = 100_000

	shutdownTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	// Base holds the search and lattice defaults applied to every request.
	Base pipeline.Options

	// Store persists every solve when set. Stored solves bypass the
	// response cache so each one gets a run ID.
	Store store.Store

	MaxBodyBytes int64 // request body limit for /v1/solve
	MaxBricks    int   // upper bound accepted for max_bricks

	Logger *log.Logger
}

// Server handles HTTP requests with a shared pipeline runner.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New creates a server around runner.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.MaxBricks <= 0 {
		opts.MaxBricks = DefaultMaxBricks
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	s := &Server{runner: runner, opts: opts, logger: opts.Logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/dimensions", s.handleDimensions)
		r.Post("/solve", s.handleSolve)
		if s.opts.Store != nil {
			r.Get("/runs", s.handleListRuns)
			r.Get("/runs/{id}", s.handleGetRun)
		}
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
