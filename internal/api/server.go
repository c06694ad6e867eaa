// Package api exposes the HTTP interface for the detection service.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/analyzer"
	"github.com/chatlens/chatlens/internal/batch"
	"github.com/chatlens/chatlens/internal/detect"
	"github.com/chatlens/chatlens/internal/detector"
	"github.com/chatlens/chatlens/internal/metrics"
)

const requestTimeout = 60 * time.Second

// Server wires HTTP handlers to the detector and batch processor.
type Server struct {
	router    chi.Router
	detector  *detector.Detector
	processor *batch.Processor
	jobs      detect.JobStore
	fallback  *analyzer.KeywordPass
	baseCtx   context.Context
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes. baseCtx bounds
// background batch runs; canceling it stops them on shutdown.
func NewServer(
	baseCtx context.Context,
	det *detector.Detector,
	processor *batch.Processor,
	jobs detect.JobStore,
	fallback *analyzer.KeywordPass,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	s := &Server{
		detector:  det,
		processor: processor,
		jobs:      jobs,
		fallback:  fallback,
		baseCtx:   baseCtx,
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.With(timeoutMiddleware(requestTimeout)).Post("/detect", s.detectURL)
		r.Route("/batches", func(r chi.Router) {
			r.Post("/", s.submitBatch)
			r.Get("/{batch_id}", s.getBatch)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type detectRequest struct {
	URL string `json:"url"`
}

func (s *Server) detectURL(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}

	result, _ := s.detector.Detect(r.Context(), req.URL)
	results := []detect.Result{result}
	analyzer.ApplyFallback(results, s.fallback, s.logger)
	writeJSON(w, http.StatusOK, results[0])
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

func (s *Server) submitBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	job, err := s.processor.Submit(r.Context(), req.URLs)
	if err != nil {
		switch {
		case errors.Is(err, detect.ErrNoURLs):
			writeError(w, http.StatusBadRequest, "at least one URL required")
		case errors.Is(err, detect.ErrTooManyURLs):
			writeError(w, http.StatusBadRequest, "too many URLs in batch")
		default:
			s.logger.Error("batch submit failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to submit batch")
		}
		return
	}

	go s.processor.Run(s.baseCtx, job)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"batch_id":    job.ID,
		"status":      job.Status,
		"total_count": job.TotalCount,
	})
}

func (s *Server) getBatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batch_id")
	job, err := s.jobs.GetJob(r.Context(), batchID)
	if err != nil {
		if errors.Is(err, detect.ErrUnknownBatch) {
			writeError(w, http.StatusNotFound, "batch not found")
			return
		}
		s.logger.Error("get batch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load batch")
		return
	}
	results, err := s.jobs.ListResults(r.Context(), batchID)
	if err != nil && !errors.Is(err, detect.ErrUnknownBatch) {
		s.logger.Error("list batch results failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load batch results")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job":     job,
		"results": results,
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
