// Package server exposes the resolver over HTTP.
//
// Routes:
//
//	POST /chat          {message, structured?} -> {answer, sources, confidence, matched_question?}
//	GET  /health        liveness
//	GET  /legal-topics  curated topics in the knowledge base
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/specter/config"
	"github.com/poiesic/specter/core"
	"github.com/poiesic/specter/knowledge"
	"github.com/poiesic/specter/resolve"
)

// maxBodyBytes bounds /chat request bodies.
const maxBodyBytes = 1 << 20

var (
	// ErrResolverRequired is returned when New is called without a resolver.
	ErrResolverRequired = errors.New("resolver required")

	// ErrTopicsRequired is returned when New is called without a topic source.
	ErrTopicsRequired = errors.New("topic source required")
)

// Resolver answers chat messages. *resolve.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, message string, opts resolve.Options) (core.AnswerResult, error)
}

// Topics lists curated topics. *knowledge.Base satisfies it.
type Topics interface {
	Topics() []knowledge.Topic
}

// ChatRequest is the /chat request body.
type ChatRequest struct {
	Message    string `json:"message"`
	Structured bool   `json:"structured,omitempty"`
}

// ChatResponse is the /chat response body. Confidence encodes as null when
// the answer did not come from a scored source.
type ChatResponse struct {
	Answer          string   `json:"answer"`
	Sources         []string `json:"sources"`
	Confidence      *float64 `json:"confidence"`
	MatchedQuestion string   `json:"matched_question,omitempty"`
}

// HealthResponse is the /health response body.
type HealthResponse struct {
	Status    string  `json:"status"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

// TopicsResponse is the /legal-topics response body.
type TopicsResponse struct {
	Topics []knowledge.Topic `json:"topics"`
	Total  int               `json:"total_topics"`
}

// Server is the HTTP front end.
type Server struct {
	resolver Resolver
	topics   Topics
	cfg      config.ServerConfig
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets the logger. Nil falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "http")
		return nil
	}
}

// New creates a Server. Zero timeouts in cfg are replaced by the defaults
// from config.DefaultConfig.
func New(resolver Resolver, topics Topics, cfg config.ServerConfig, opts ...Option) (*Server, error) {
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if topics == nil {
		return nil, ErrTopicsRequired
	}
	defaults := config.DefaultConfig().Server
	if cfg.Addr == "" {
		cfg.Addr = defaults.Addr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.GracefulShutdown <= 0 {
		cfg.GracefulShutdown = defaults.GracefulShutdown
	}

	s := &Server{
		resolver: resolver,
		topics:   topics,
		cfg:      cfg,
		logger:   slog.Default().With("component", "http"),
		now:      time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Handler returns the routed handler with middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/health", s.health)
	r.Get("/legal-topics", s.legalTopics)
	r.Post("/chat", s.chat)

	return r
}

// Run serves until ctx is cancelled, the process receives SIGINT or
// SIGTERM, or the listener fails. Shutdown waits up to GracefulShutdown for
// in-flight requests before forcing connections closed.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  2 * s.cfg.ReadTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case sig := <-shutdown:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("graceful shutdown failed", "err", err)
		if err := srv.Close(); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Message:   "SPECTER Legal Assistant API is running",
		Timestamp: float64(s.now().UnixMilli()) / 1000,
	})
}

func (s *Server) legalTopics(w http.ResponseWriter, _ *http.Request) {
	topics := s.topics.Topics()
	writeJSON(w, http.StatusOK, TopicsResponse{Topics: topics, Total: len(topics)})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.resolver.Resolve(r.Context(), req.Message, resolve.Options{Structured: req.Structured})
	switch {
	case errors.Is(err, core.ErrEmptyQuestion), errors.Is(err, core.ErrQuestionTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("resolve failed", "err", err, "request_id", chimiddleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	sources := result.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:          result.Answer,
		Sources:         sources,
		Confidence:      result.Confidence,
		MatchedQuestion: result.MatchedQuestion,
	})
}

// requestLogger logs one line per request once the handler returns.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
