package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	auditpublisher "ucphost/internal/audit/publisher"
	auditmemory "ucphost/internal/audit/store/memory"
	"ucphost/internal/capability"
	"ucphost/internal/discovery"
	"ucphost/internal/envelope"
	envelopemetrics "ucphost/internal/envelope/metrics"
	jwttoken "ucphost/internal/jwt_token"
	"ucphost/internal/manifest"
	manifesthandler "ucphost/internal/manifest/handler"
	"ucphost/internal/negotiation"
	"ucphost/internal/payment"
	paymentmetrics "ucphost/internal/payment/metrics"
	"ucphost/internal/payment/tokenizer"
	"ucphost/internal/platform/config"
	platformmetrics "ucphost/internal/platform/metrics"
	"ucphost/internal/platform/middleware"
	redisclient "ucphost/internal/platform/redis"
	ratelimitmetrics "ucphost/internal/ratelimit/metrics"
	ratelimit "ucphost/internal/ratelimit/middleware"
	ratelimitmodels "ucphost/internal/ratelimit/models"
	"ucphost/internal/ratelimit/store/bucket"
	shoppinghandler "ucphost/internal/shopping/handler"
	"ucphost/internal/shopping/service"
	"ucphost/internal/shopping/store"
	"ucphost/internal/transport/jsonrpc"
	"ucphost/internal/transport/mcpserver"
	"ucphost/pkg/platform/httputil"
)

const (
	serviceName      = "ucphost"
	businessUnitID   = "merchant"
	providerUnitID   = "shopping"
	identityLinkPath = "/identity-linking"
	pruneInterval    = time.Minute
	auditBufferSize  = 1024
)

// app is the assembled host: every dependency is built here, in order, with
// no container.
type app struct {
	handler  http.Handler
	service  *service.Service
	registry *capability.Registry
	redis    *redisclient.Client
	audit    *auditpublisher.Publisher
	stop     context.CancelFunc
}

func newApp(ctx context.Context, cfg config.Server, log *slog.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*app, error) {
	feed, err := loadFeed(cfg)
	if err != nil {
		return nil, err
	}
	registry, err := capability.Build(feed)
	if err != nil {
		return nil, fmt.Errorf("build capability registry: %w", err)
	}

	payments := payment.NewRegistry()
	payments.Register(tokenizer.Name, tokenizer.New(cfg.BaseURL))
	dispatcher := payment.NewDispatcher(payments, log, paymentmetrics.New(reg))

	a := &app{registry: registry}

	var (
		cache    negotiation.ProfileCache = negotiation.NewMemoryProfileCache()
		counters ratelimit.Store
	)
	if cfg.Redis.URL != "" {
		a.redis, err = redisclient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		cache = negotiation.NewRedisProfileCache(a.redis.Client)
		counters = bucket.NewRedisBucketStore(a.redis.Client)
	} else {
		memory := bucket.New()
		counters = memory
		var pruneCtx context.Context
		pruneCtx, a.stop = context.WithCancel(context.WithoutCancel(ctx))
		go pruneBuckets(pruneCtx, memory, pruneInterval)
	}
	fetcher := negotiation.NewFetcher(
		negotiation.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
		negotiation.WithCache(cache, cfg.ProfileCacheTTL),
		negotiation.WithFetchTimeout(cfg.ProfileFetchTimeout),
		negotiation.WithLogger(log),
	)
	negotiator := negotiation.New(registry, payments, fetcher, log)

	a.audit = auditpublisher.NewPublisher(auditmemory.NewInMemoryStore(),
		auditpublisher.WithAsyncBuffer(auditBufferSize),
		auditpublisher.WithLogger(log),
	)

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.BaseURL, cfg.BaseURL)
	a.service = service.New(store.New(), dispatcher, payments, tokens, service.Config{
		BaseURL:     cfg.BaseURL,
		Currency:    cfg.Currency,
		CheckoutTTL: cfg.CheckoutTTL,
		Catalog:     service.DefaultCatalog(),
	}, log, service.WithAuditor(a.audit))

	bridge := envelope.NewBridge(log, envelopemetrics.New(reg))
	httpMetrics := platformmetrics.New(reg)

	limiter := ratelimit.New(counters, rateLimits(cfg.RateLimit), log,
		ratelimit.WithDisabled(!cfg.RateLimit.Enabled),
		ratelimit.WithMetrics(ratelimitmetrics.New(reg)),
	)

	var auth []func(http.Handler) http.Handler
	if cfg.AuthRequired {
		auth = append(auth, exceptIdentityLinking(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(tokens), log, httpMetrics)))
	}

	r := chi.NewRouter()
	r.Use(otelhttp.NewMiddleware(serviceName))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata(cfg.TrustProxyHeaders))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.LatencyMiddleware(httpMetrics))

	builder := manifest.NewBuilder(registry, payments, manifest.Endpoints(cfg.BaseURL, manifest.Transports{
		MCP: cfg.MCPEnabled,
		A2A: cfg.A2AEnabled,
	}))
	manifesthandler.New(builder, log).Register(r)

	rest := append([]func(http.Handler) http.Handler{
		limiter.Handler,
		middleware.Timeout(cfg.RequestTimeout),
		middleware.ContentTypeJSON,
	}, auth...)
	rest = append(rest, negotiator.Middleware)
	shoppinghandler.New(a.service, bridge, log, rest...).Register(r)

	if cfg.A2AEnabled {
		rpc := append(append([]func(http.Handler) http.Handler{limiter.Handler}, auth...), negotiator.Middleware)
		jsonrpc.New(a.service, bridge, log, rpc...).Register(r)
	}
	if cfg.MCPEnabled {
		mcp := append([]func(http.Handler) http.Handler{limiter.Handler}, auth...)
		mcpserver.New(serviceName, version, a.service, bridge, negotiator, log, mcp...).Register(r)
	}

	r.Get("/healthz", a.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	a.handler = r
	return a, nil
}

func loadFeed(cfg config.Server) (capability.Feed, error) {
	if cfg.DiscoveryFile != "" {
		feed, err := discovery.LoadFile(cfg.DiscoveryFile)
		if err != nil {
			return nil, fmt.Errorf("load discovery file: %w", err)
		}
		return feed, nil
	}
	return discovery.NewStaticFeed(
		discovery.BusinessRecord(businessUnitID, capability.BusinessIdentity{
			Name:    cfg.BusinessName,
			Version: cfg.BusinessVersion,
		}),
		discovery.ProviderRecord(providerUnitID),
	), nil
}

func rateLimits(cfg config.RateLimitConfig) map[ratelimitmodels.EndpointClass]ratelimitmodels.Limit {
	return map[ratelimitmodels.EndpointClass]ratelimitmodels.Limit{
		ratelimitmodels.ClassRead:     {Requests: cfg.Read, Window: cfg.Window},
		ratelimitmodels.ClassWrite:    {Requests: cfg.Write, Window: cfg.Window},
		ratelimitmodels.ClassPayment:  {Requests: cfg.Payment, Window: cfg.Window},
		ratelimitmodels.ClassIdentity: {Requests: cfg.Identity, Window: cfg.Window},
	}
}

func pruneBuckets(ctx context.Context, store *bucket.InMemoryBucketStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Prune()
		}
	}
}

// exceptIdentityLinking lets token exchange through without a bearer token.
func exceptIdentityLinking(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		protected := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, identityLinkPath) {
				next.ServeHTTP(w, r)
				return
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.redis != nil {
		if err := a.redis.Health(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": "unreachable"})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *app) Close() error {
	if a.stop != nil {
		a.stop()
	}
	if a.audit != nil {
		a.audit.Close()
	}
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
