// Package http exposes the record API: user-scoped CRUD for expenses,
// budgets, and categories, plus spending analytics and budget progress.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

type Server struct {
	http.Server

	svc      *services.RecordService
	resolver *auth.Resolver
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	logger   *log.Logger

	shutdownOnce sync.Once
}

// Config carries the server's tunables.
type Config struct {
	Addr              string
	RequestsPerMinute int
}

// NewServer wires routes and the middleware chain: tracing outermost, then
// CORS (so preflights bypass throttling), then the per-user rate limiter.
func NewServer(cfg Config, svc *services.RecordService, resolver *auth.Resolver, logger *log.Logger) *Server {
	s := &Server{
		svc:      svc,
		resolver: resolver,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RequestsPerMinute}),
		tracer:   trace.NewMiddleware(logger),
		logger:   logger.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/expenses", s.handleExpenses)
	mux.HandleFunc("/expenses/", s.handleExpenseByID)
	mux.HandleFunc("/budgets", s.handleBudgets)
	mux.HandleFunc("/budgets/", s.handleBudgetByID)
	mux.HandleFunc("/categories", s.handleCategories)
	mux.HandleFunc("/categories/", s.handleCategoryByID)
	mux.HandleFunc("/analytics", s.handleAnalytics)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	throttled := s.limiter.Middleware(s.limitKey, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "Rate limit exceeded"})
	})(mux)

	hardened := security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(throttled)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.tracer.Middleware(withCORS(hardened)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// limitKey buckets throttling by resolved user so tenants cannot starve
// each other; unauthenticated traffic falls back to the socket address.
func (s *Server) limitKey(r *http.Request) string {
	if userID, err := s.resolver.UserID(r); err == nil {
		return userID
	}
	return r.RemoteAddr
}

// Shutdown stops the listener and the limiter's bookkeeping goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "readiness check failed", log.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_requests":       traceMetrics.TotalRequests,
		"last_response_us":     traceMetrics.AverageResponseTime,
		"rate_limit_hits":      limitMetrics.TotalHits,
		"rate_limited_clients": limitMetrics.ClientCount,
	})
}
