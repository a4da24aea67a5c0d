// Package middleware enforces per-client request budgets on the capability
// surface.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ucphost/internal/ratelimit/metrics"
	"ucphost/internal/ratelimit/models"
	"ucphost/internal/ratelimit/store/bucket"
	dErrors "ucphost/pkg/domain-errors"
	"ucphost/pkg/platform/httputil"
	"ucphost/pkg/requestcontext"
)

// StatusHeader is set to "degraded" while the fallback store answers.
const StatusHeader = "X-RateLimit-Status"

// Store counts requests per key.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

// Classifier maps a request to the budget it draws from.
type Classifier func(r *http.Request) models.EndpointClass

type Middleware struct {
	primary  Store
	fallback Store
	breaker  *CircuitBreaker
	limits   map[models.EndpointClass]models.Limit
	classify Classifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithClassifier replaces ClassifyRequest.
func WithClassifier(c Classifier) Option {
	return func(m *Middleware) {
		if c != nil {
			m.classify = c
		}
	}
}

// WithFallback replaces the in-memory fallback store.
func WithFallback(s Store) Option {
	return func(m *Middleware) {
		if s != nil {
			m.fallback = s
		}
	}
}

// WithCircuitThresholds sets how many primary failures open the circuit and
// how many successes close it again.
func WithCircuitThresholds(failures, successes int) Option {
	return func(m *Middleware) {
		m.breaker = newCircuitBreaker(failures, successes)
	}
}

// WithMetrics records rejections and fallback use.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

// New creates the middleware. Classes without an entry in limits are not limited.
func New(primary Store, limits map[models.EndpointClass]models.Limit, logger *slog.Logger, opts ...Option) *Middleware {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Middleware{
		primary:  primary,
		fallback: bucket.New(),
		breaker:  newCircuitBreaker(0, 0),
		limits:   limits,
		classify: ClassifyRequest,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// ClassifyRequest assigns REST routes by path and method. JSON-RPC and MCP
// calls are POSTs and land in ClassWrite.
func ClassifyRequest(r *http.Request) models.EndpointClass {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case strings.HasSuffix(path, "/complete"):
		return models.ClassPayment
	case strings.HasSuffix(path, "/identity-linking"):
		return models.ClassIdentity
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		return models.ClassRead
	default:
		return models.ClassWrite
	}
}

// Handler enforces the budget of the request's class for the calling client.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		class := m.classify(r)
		limit, ok := m.limits[class]
		if !ok || limit.Requests <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		client := requestcontext.ClientIP(ctx)
		if client == "" {
			client = "unknown"
		}

		result, degraded := m.allow(ctx, models.NewKey(class, client), limit)
		if result == nil {
			// Both stores failed; fail open.
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if degraded {
			w.Header().Set(StatusHeader, "degraded")
		}

		if !result.Allowed {
			m.metrics.IncrementRejection(string(class))
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"class", class,
				"request_id", requestcontext.RequestID(ctx),
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests; retry after "+strconv.Itoa(result.RetryAfter)+"s"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) allow(ctx context.Context, key string, limit models.Limit) (*models.Result, bool) {
	result, err := m.primary.Allow(ctx, key, limit.Requests, limit.Window)
	if err == nil {
		closed := m.breaker.RecordSuccess()
		m.metrics.SetDegraded(!closed)
		if closed {
			return result, false
		}
	} else {
		open := m.breaker.RecordFailure()
		m.metrics.SetDegraded(open)
		m.logger.WarnContext(ctx, "rate limit store unavailable, using fallback",
			"error", err,
			"circuit_open", open,
		)
	}

	m.metrics.IncrementFallback()
	result, err = m.fallback.Allow(ctx, key, limit.Requests, limit.Window)
	if err != nil {
		m.logger.ErrorContext(ctx, "fallback rate limit check failed", "error", err)
		return nil, true
	}
	return result, true
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
