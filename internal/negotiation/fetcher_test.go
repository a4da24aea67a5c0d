package negotiation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ucphost/internal/capability"
	"ucphost/pkg/platform/sentinel"
)

type FetcherSuite struct {
	suite.Suite
	ctx     context.Context
	server  *httptest.Server
	hits    atomic.Int32
	profile Profile
	status  int
	fetcher *Fetcher
}

func TestFetcherSuite(t *testing.T) {
	suite.Run(t, new(FetcherSuite))
}

func (s *FetcherSuite) SetupTest() {
	s.ctx = context.Background()
	s.hits.Store(0)
	s.status = http.StatusOK
	s.profile = Profile{UCP: ProfileMetadata{
		Version:      "2026-01-11",
		Capabilities: []capability.Descriptor{desc(capability.Checkout, "2026-01-11")},
	}}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.WriteHeader(s.status)
		_ = json.NewEncoder(w).Encode(s.profile)
	}))
	s.fetcher = NewFetcher(WithHTTPClient(s.server.Client()))
}

func (s *FetcherSuite) TearDownTest() {
	s.server.Close()
}

func (s *FetcherSuite) TestFetchCachesProfile() {
	first, err := s.fetcher.Fetch(s.ctx, s.server.URL)
	s.Require().NoError(err)
	s.Equal("2026-01-11", first.UCP.Version)
	s.Require().Len(first.UCP.Capabilities, 1)

	second, err := s.fetcher.Fetch(s.ctx, s.server.URL)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(int32(1), s.hits.Load())
}

func (s *FetcherSuite) TestConcurrentFetchesShareOneRequest() {
	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.fetcher.Fetch(s.ctx, s.server.URL)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}
	s.Equal(int32(1), s.hits.Load())
}

func (s *FetcherSuite) TestFetchFailures() {
	s.Run("non-200 status", func() {
		s.status = http.StatusNotFound
		_, err := s.fetcher.Fetch(s.ctx, s.server.URL+"/missing")
		s.ErrorContains(err, "unexpected status 404")
	})

	s.Run("invalid version", func() {
		s.status = http.StatusOK
		s.profile.UCP.Version = "1.0"
		_, err := s.fetcher.Fetch(s.ctx, s.server.URL+"/bad-version")
		s.ErrorIs(err, ErrInvalidProfile)
	})

	s.Run("not a URL", func() {
		_, err := s.fetcher.Fetch(s.ctx, "ftp://platform.example/profile")
		s.ErrorIs(err, ErrMalformedAgentHeader)
	})

	s.Run("failures are not cached", func() {
		s.profile.UCP.Version = "2026-01-11"
		_, err := s.fetcher.Fetch(s.ctx, s.server.URL+"/bad-version")
		s.NoError(err)
	})
}

func TestMemoryProfileCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 11, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryProfileCache()
	cache.now = func() time.Time { return now }

	profile := &Profile{UCP: ProfileMetadata{Version: "2026-01-11"}}
	if err := cache.Set(ctx, "https://platform.example", profile, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := cache.Get(ctx, "https://platform.example")
	if err != nil || got != profile {
		t.Fatalf("expected cached profile, got %v, %v", got, err)
	}

	now = now.Add(time.Minute)
	if _, err := cache.Get(ctx, "https://platform.example"); err != sentinel.ErrNotFound {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
	if _, err := cache.Get(ctx, "https://other.example"); err != sentinel.ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown url, got %v", err)
	}
}
