// Package server exposes the diagram pipeline over HTTP.
//
// Routes:
//
//	POST /api/v1/diagrams   run the pipeline, archive and return the run
//	GET  /api/v1/runs       list archived runs
//	GET  /api/v1/runs/{id}  fetch one archived run
//	GET  /healthz           liveness probe
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/accviz/accviz/pkg/archive"
	"github.com/accviz/accviz/pkg/errors"
	"github.com/accviz/accviz/pkg/pipeline"
)

const defaultListLimit = 50

// Server wires the pipeline runner and the run archive into an HTTP API.
type Server struct {
	runner *pipeline.Runner
	store  archive.Store
	logger *log.Logger
}

// New creates a server. A nil store falls back to an in-memory archive.
func New(runner *pipeline.Runner, store archive.Store, logger *log.Logger) *Server {
	if store == nil {
		store = archive.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, store: store, logger: logger}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/diagrams", s.handleCreateDiagram)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return r
}

// Serve runs the HTTP server until the context is canceled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// diagramResponse is the body returned for a created diagram.
type diagramResponse struct {
	ID        string             `json:"id"`
	Stats     statsResponse      `json:"stats"`
	Cache     pipeline.CacheInfo `json:"cache"`
	Artifacts map[string][]byte  `json:"artifacts"`
}

type statsResponse struct {
	Entities int `json:"entities"`
	Clusters int `json:"clusters"`
	Steps    int `json:"steps"`
}

func (s *Server) handleCreateDiagram(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid request body: %v", err))
		return
	}
	opts.Logger = s.logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options: %v", err))
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	run := archive.NewRun(opts, res)
	if err := s.store.Put(r.Context(), run); err != nil {
		s.logger.Error("archive run", "err", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, diagramResponse{
		ID: run.ID,
		Stats: statsResponse{
			Entities: res.Stats.EntityCount,
			Clusters: res.Stats.ClusterCount,
			Steps:    res.Stats.StepCount,
		},
		Cache:     res.CacheInfo,
		Artifacts: res.Artifacts,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.List(r.Context(), defaultListLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// errorResponse is the uniform error body.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	var resp errorResponse
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	resp.Error.Code = string(code)
	resp.Error.Message = errors.UserMessage(err)
	writeJSON(w, statusFor(code), resp)
}

// statusFor maps error codes to HTTP status codes. The placement error
// taxonomy maps to 422: the request was well-formed but the data can't
// produce a diagram.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidStyle, errors.ErrCodeInvalidMatrix:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeRunNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDomain, errors.ErrCodeLookup, errors.ErrCodeStructural:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
