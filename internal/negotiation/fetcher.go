package negotiation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"ucphost/pkg/platform/sentinel"
)

const (
	tracerName = "ucphost/internal/negotiation"

	defaultProfileTTL   = 5 * time.Minute
	defaultFetchTimeout = 5 * time.Second
	maxProfileBytes     = 1 << 20
)

// Fetcher retrieves platform profiles over HTTP. Concurrent fetches of the
// same URL share one request and successful results are cached.
type Fetcher struct {
	client  *http.Client
	cache   ProfileCache
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
	group   singleflight.Group
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the client used for profile requests.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithCache sets the profile cache and entry lifetime.
func WithCache(cache ProfileCache, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.cache = cache
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

// WithFetchTimeout bounds a single profile request.
func WithFetchTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a fetcher backed by an in-memory cache unless
// WithCache says otherwise.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:  http.DefaultClient,
		cache:   NewMemoryProfileCache(),
		ttl:     defaultProfileTTL,
		timeout: defaultFetchTimeout,
		logger:  slog.New(slog.DiscardHandler),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fetch returns the profile published at profileURL.
func (f *Fetcher) Fetch(ctx context.Context, profileURL string) (*Profile, error) {
	if err := validateProfileURL(profileURL); err != nil {
		return nil, err
	}

	if profile, err := f.cache.Get(ctx, profileURL); err == nil {
		return profile, nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		f.logger.WarnContext(ctx, "profile cache read failed", "profile_url", profileURL, "error", err)
	}

	// The fetch outlives any single caller; all waiters share its result.
	v, err, shared := f.group.Do(profileURL, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()
		return f.fetch(fetchCtx, profileURL)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		f.logger.DebugContext(ctx, "profile fetch shared", "profile_url", profileURL)
	}
	return v.(*Profile), nil
}

func (f *Fetcher) fetch(ctx context.Context, profileURL string) (*Profile, error) {
	ctx, span := f.tracer.Start(ctx, "negotiation.fetch_profile", trace.WithAttributes(
		attribute.String("ucp.profile_url", profileURL),
	))
	defer span.End()

	profile, err := f.get(ctx, profileURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile fetch failed")
		return nil, err
	}

	if err := f.cache.Set(ctx, profileURL, profile, f.ttl); err != nil {
		f.logger.WarnContext(ctx, "profile cache write failed", "profile_url", profileURL, "error", err)
	}
	span.SetAttributes(attribute.String("ucp.platform_version", profile.UCP.Version))
	return profile, nil
}

func (f *Fetcher) get(ctx context.Context, profileURL string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBytes)).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

func validateProfileURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedAgentHeader, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: profile must be an absolute http(s) URL", ErrMalformedAgentHeader)
	}
	return nil
}
