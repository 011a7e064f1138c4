package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/kalaam-crawler/internal/config"
	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
	"github.com/JakeFAU/kalaam-crawler/internal/metrics"
	"github.com/JakeFAU/kalaam-crawler/internal/phonetic"
)

const fallbackSearchLimit = 20

// RecordReader is the read side of a record store.
type RecordReader interface {
	Get(ctx context.Context, id int64) (crawler.Record, error)
	Search(ctx context.Context, key string, limit int) ([]crawler.Record, error)
}

// pinger is implemented by stores that can report connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the record store.
type Server struct {
	router chi.Router
	store  RecordReader
	cfg    config.Config
	logger *zap.Logger
}

// SearchResponse is the payload returned by the search endpoint.
type SearchResponse struct {
	Query   string           `json:"query"`
	Key     string           `json:"key"`
	Count   int              `json:"count"`
	Results []crawler.Record `json:"results"`
}

// NewServer constructs a Server with middleware and routes.
func NewServer(store RecordReader, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	s := &Server{
		store:  store,
		cfg:    cfg,
		logger: logger.Named("api"),
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Route("/kalaam", func(r chi.Router) {
			r.Get("/search", s.searchKalaam)
			r.Get("/{id}", s.getKalaam)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			s.writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getKalaam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		s.writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	record, err := s.store.Get(r.Context(), id)
	if errors.Is(err, crawler.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "kalaam not found")
		return
	}
	if err != nil {
		s.logger.Error("get kalaam failed", zap.Int64("id", id), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load kalaam")
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) searchKalaam(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "q required")
		return
	}
	limit, err := s.searchLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := phonetic.Key(query)
	if key == "" {
		s.writeJSON(w, http.StatusOK, SearchResponse{Query: query, Results: []crawler.Record{}})
		return
	}
	records, err := s.store.Search(r.Context(), key, limit)
	if err != nil {
		s.logger.Error("search kalaam failed", zap.String("key", key), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if records == nil {
		records = []crawler.Record{}
	}
	s.writeJSON(w, http.StatusOK, SearchResponse{
		Query:   query,
		Key:     key,
		Count:   len(records),
		Results: records,
	})
}

func (s *Server) searchLimit(raw string) (int, error) {
	if raw == "" {
		if s.cfg.Search.DefaultLimit <= 0 {
			return fallbackSearchLimit, nil
		}
		return s.cfg.Search.DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if s.cfg.Search.MaxLimit > 0 && limit > s.cfg.Search.MaxLimit {
		limit = s.cfg.Search.MaxLimit
	}
	return limit, nil
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the request id stored by the request id middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered",
					zap.String("request_id", RequestID(r.Context())),
					zap.Any("error", rec),
				)
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
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

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeErrorBody(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := encodeJSON(w, status, payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func writeErrorBody(w http.ResponseWriter, status int, msg string) {
	if err := encodeJSON(w, status, map[string]string{"error": msg}); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func encodeJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
