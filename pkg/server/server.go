// Package server exposes the render pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz           liveness probe
//	POST /v1/render         render lines, respond with a base64 PNG envelope
//	GET  /v1/renders/{id}   fetch a stored render as image/png
//
// Request and response bodies are JSON. Errors are reported as
// {"error": "<CODE>", "message": "..."} with a 4xx status for client errors.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/clishot/pkg/buildinfo"
	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/pipeline"
	"github.com/matzehuels/clishot/pkg/render"
	"github.com/matzehuels/clishot/pkg/storage"
	"github.com/matzehuels/clishot/pkg/style"
)

const (
	// MaxBodySize bounds request bodies.
	MaxBodySize = 1 << 20

	// RequestTimeout bounds a single render.
	RequestTimeout = 60 * time.Second

	// DefaultName is used when a stored render has no name.
	DefaultName = "render"
)

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	store  storage.Store
	logger *log.Logger
	router chi.Router
}

// New builds the router. A nil store disables saving and GET /v1/renders.
func New(runner *pipeline.Runner, store storage.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{runner: runner, store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Get("/renders/{id}", s.handleGetRender)
	})
	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", addr)
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// RenderRequest is the body of POST /v1/render.
type RenderRequest struct {
	Lines      []string     `json:"lines"`
	Width      int          `json:"width,omitempty"`
	Padding    *int         `json:"padding,omitempty"`
	FontSize   float64      `json:"font_size,omitempty"`
	ShowChrome *bool        `json:"show_chrome,omitempty"`
	Styles     []style.Spec `json:"styles,omitempty"`

	// Save stores the PNG under Name when the server has a store.
	Save bool   `json:"save,omitempty"`
	Name string `json:"name,omitempty"`
}

// RenderResponse is the body returned by POST /v1/render.
type RenderResponse struct {
	ID            string `json:"id"`
	Image         string `json:"image"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Cached        bool   `json:"cached"`
	SkippedImages int    `json:"skipped_images"`
	StoredID      string `json:"stored_id,omitempty"`
}

type errorResponse struct {
	Error   errors.Code `json:"error"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if len(req.Lines) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "lines are required"))
		return
	}
	if req.Save {
		if s.store == nil {
			s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "this server does not store renders"))
			return
		}
		if req.Name == "" {
			req.Name = DefaultName
		}
		if err := errors.ValidateOutputName(req.Name); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	res, err := s.runner.Execute(r.Context(), pipeline.Options{
		Lines:      req.Lines,
		Width:      req.Width,
		Padding:    req.Padding,
		FontSize:   req.FontSize,
		ShowChrome: req.ShowChrome,
		Styles:     req.Styles,
		Formats:    []string{pipeline.FormatPNG},
		Logger:     s.logger,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := res.Artifacts[pipeline.FormatPNG]
	resp := RenderResponse{
		ID:            uuid.NewString(),
		Image:         string(render.EncodeBase64(data)),
		Width:         res.Stats.Width,
		Height:        res.Stats.Height,
		Cached:        res.CacheInfo.RenderHit,
		SkippedImages: res.Stats.SkippedImages,
	}
	if req.Save {
		id, err := s.store.Save(r.Context(), req.Name, data)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.StoredID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRender(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "this server does not store renders"))
		return
	}
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(rec.Data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{Error: code, Message: errors.UserMessage(err)})
}

// StatusFor maps an error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeNotFound), errors.Is(err, errors.ErrCodeFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, errors.ErrCodeTimeout), err == context.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
