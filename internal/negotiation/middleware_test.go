package negotiation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ucphost/internal/capability"
	"ucphost/internal/payment"
	"ucphost/internal/payment/tokenizer"
	dErrors "ucphost/pkg/domain-errors"
)

type staticFeed []capability.Record

func (f staticFeed) Records() []capability.Record { return f }

func newTestNegotiator(t *testing.T, client *http.Client) *Negotiator {
	t.Helper()
	registry, err := capability.Build(staticFeed{
		{UnitID: "merchant", Business: &capability.BusinessIdentity{Name: "Example Store", Version: "2026-01-20"}},
		{UnitID: "checkout-service", PrimaryProvider: true, TransportReachable: true},
	})
	require.NoError(t, err)

	payments := payment.NewRegistry()
	payments.Register(tokenizer.Name, tokenizer.New("https://shop.example"))

	return New(registry, payments, NewFetcher(WithHTTPClient(client)), nil)
}

func profileServer(t *testing.T, profile Profile) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(profile)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func serve(n *Negotiator, header string) (*httptest.ResponseRecorder, *Result) {
	var captured *Result
	h := n.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/ucp/v1/checkout-sessions/1", nil)
	if header != "" {
		req.Header.Set(AgentHeader, header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, captured
}

func TestMiddleware(t *testing.T) {
	t.Run("no header yields business view", func(t *testing.T) {
		n := newTestNegotiator(t, http.DefaultClient)

		rr, result := serve(n, "")

		assert.Equal(t, http.StatusNoContent, rr.Code)
		require.NotNil(t, result)
		assert.False(t, result.Negotiated())
		assert.Equal(t, "2026-01-20", result.Version)
		assert.Len(t, result.Capabilities, 3)
		assert.Len(t, result.PaymentHandlers, 1)
	})

	t.Run("profile is intersected", func(t *testing.T) {
		srv := profileServer(t, Profile{UCP: ProfileMetadata{
			Version: "2026-01-11",
			Capabilities: []capability.Descriptor{
				desc(capability.Checkout, "2026-01-11"),
				desc("com.example.loyalty", "2026-01-11"),
			},
			Payment: &PaymentBlock{Handlers: []payment.Declaration{{Name: tokenizer.Name, Version: "2026-01-11"}}},
		}})
		n := newTestNegotiator(t, srv.Client())

		rr, result := serve(n, `profile="`+srv.URL+`"`)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		require.NotNil(t, result)
		assert.True(t, result.Negotiated())
		assert.Equal(t, srv.URL, result.ProfileURL)
		assert.Equal(t, []capability.Descriptor{desc(capability.Checkout, "2026-01-11")}, result.Capabilities)
		require.Len(t, result.PaymentHandlers, 1)
		assert.Equal(t, tokenizer.Name, result.PaymentHandlers[0].Name)
	})

	t.Run("newer platform version is rejected", func(t *testing.T) {
		srv := profileServer(t, Profile{UCP: ProfileMetadata{Version: "2026-03-01"}})
		n := newTestNegotiator(t, srv.Client())

		rr, result := serve(n, `profile="`+srv.URL+`"`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Nil(t, result)
		assert.Contains(t, rr.Body.String(), "ucp_version_unsupported")
	})

	t.Run("fetch failure falls back with warning", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(srv.Close)
		n := newTestNegotiator(t, srv.Client())

		rr, result := serve(n, `profile="`+srv.URL+`"`)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("Warning"))
		require.NotNil(t, result)
		assert.Error(t, result.FetchError)
		assert.False(t, result.Negotiated())
		assert.Len(t, result.Capabilities, 3)
	})

	t.Run("malformed header is a bad request", func(t *testing.T) {
		n := newTestNegotiator(t, http.DefaultClient)

		rr, result := serve(n, `profile=unquoted`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Nil(t, result)
	})

	t.Run("relative profile url is a bad request", func(t *testing.T) {
		n := newTestNegotiator(t, http.DefaultClient)

		rr, _ := serve(n, `profile="/.well-known/ucp"`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestResolve(t *testing.T) {
	n := newTestNegotiator(t, http.DefaultClient)

	result, err := n.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, result.Negotiated())
	assert.Equal(t, "2026-01-20", result.Version)

	_, err = n.Resolve(context.Background(), "ftp://platform.example/profile")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}
