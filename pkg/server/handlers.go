package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/brickshell/pkg/buildinfo"
	"github.com/matzehuels/brickshell/pkg/cache"
	"github.com/matzehuels/brickshell/pkg/errors"
	"github.com/matzehuels/brickshell/pkg/opening"
	"github.com/matzehuels/brickshell/pkg/pipeline"
	"github.com/matzehuels/brickshell/pkg/shell/optimize"
	"github.com/matzehuels/brickshell/pkg/store"
)

const (
	headerTotal   = "X-Brickshell-Total"
	headerActive  = "X-Brickshell-Active"
	headerSkipped = "X-Brickshell-Skipped"
	headerRun     = "X-Brickshell-Run"
	headerCache   = "X-Brickshell-Cache"
)

type healthResponse struct {
	Status  string         `json:"status"`
	Version buildinfo.Info `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Get()})
}

type dimensionsResponse struct {
	optimize.Result
	Cached bool `json:"cached"`
}

func (s *Server) handleDimensions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	found, hit, err := s.runner.OptimizeWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dimensionsResponse{Result: found, Cached: hit})
}

// solveResponse is what the solve cache stores.
type solveResponse struct {
	ContentType string `json:"content_type"`
	Total       int    `json:"total"`
	Active      int    `json:"active"`
	Skipped     int    `json:"skipped"`
	Body        []byte `json:"body"`
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatCSV
	}
	if format != pipeline.FormatCSV && format != pipeline.FormatJSON {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "format must be csv or json, got %q", format))
		return
	}
	opts.Formats = []string{format}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	specs, skipped, err := opening.ReadJSON(bytes.NewReader(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, sk := range skipped {
		s.logger.Warn("skipped opening", "index", sk.Index, "reason", sk.Reason)
	}
	opts.Openings = specs

	var key string
	if s.opts.Store == nil {
		if err := opts.ValidateAndSetDefaults(); err != nil {
			s.writeError(w, r, err)
			return
		}
		key = s.runner.Keyer.SolveKey(s.runner.Keyer.DimensionsKey(opts.DimensionsKeyOpts()), cache.Hash(body), format)
		if resp, ok := s.cachedSolve(ctx, key); ok {
			w.Header().Set(headerCache, "hit")
			writeSolve(w, resp)
			return
		}
	}

	res, err := s.runner.Execute(ctx, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := solveResponse{
		Total:   res.Stats.Total,
		Active:  res.Stats.Active,
		Skipped: len(skipped),
	}
	if format == pipeline.FormatJSON {
		resp.ContentType = "application/json"
		resp.Body = res.Artifacts[pipeline.FilePlacementJSON]
	} else {
		resp.ContentType = "text/csv; charset=utf-8"
		resp.Body = res.Artifacts[pipeline.FilePlacementCSV]
	}

	if s.opts.Store != nil {
		run := store.NewRun(res, opts.MaxBricks)
		if err := s.opts.Store.SaveRun(ctx, run); err != nil {
			s.writeError(w, r, fmt.Errorf("save run: %w", err))
			return
		}
		w.Header().Set(headerRun, run.ID)
	} else {
		s.storeSolve(ctx, key, resp)
		w.Header().Set(headerCache, "miss")
	}
	writeSolve(w, resp)
}

func (s *Server) cachedSolve(ctx context.Context, key string) (solveResponse, bool) {
	var resp solveResponse
	data, hit, err := s.runner.Cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache lookup failed", "error", err)
		return resp, false
	}
	if !hit || json.Unmarshal(data, &resp) != nil {
		return resp, false
	}
	return resp, true
}

func (s *Server) storeSolve(ctx context.Context, key string, resp solveResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.runner.Cache.Set(ctx, key, data, cache.TTLSolve); err != nil {
		s.logger.Warn("cache write failed", "error", err)
	}
}

func writeSolve(w http.ResponseWriter, resp solveResponse) {
	h := w.Header()
	h.Set("Content-Type", resp.ContentType)
	h.Set(headerTotal, strconv.Itoa(resp.Total))
	h.Set(headerActive, strconv.Itoa(resp.Active))
	h.Set(headerSkipped, strconv.Itoa(resp.Skipped))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Body)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "limit must be between 1 and 1000"))
			return
		}
		limit = n
	}
	runs, err := s.opts.Store.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.opts.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// requestOptions copies the base options and applies query overrides.
func (s *Server) requestOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.opts.Base
	opts.Logger = s.logger
	if v := r.URL.Query().Get("max_bricks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "max_bricks must be a positive integer, got %q", v)
		}
		opts.MaxBricks = n
	}
	if opts.MaxBricks > s.opts.MaxBricks {
		return opts, errors.New(errors.ErrCodeInvalidInput, "max_bricks %d exceeds the server limit of %d", opts.MaxBricks, s.opts.MaxBricks)
	}
	opts.Refresh = r.URL.Query().Get("refresh") == "true"
	return opts, nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: string(errors.GetCode(err))})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if stderrors.Is(err, context.Canceled) {
		return 499
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidOpening:
		return http.StatusBadRequest
	case errors.ErrCodeNoFeasibleDimensions:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
