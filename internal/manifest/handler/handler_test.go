package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ucphost/internal/manifest"
)

type builderFunc func() (*manifest.Document, error)

func (f builderFunc) Build() (*manifest.Document, error) { return f() }

func serve(t *testing.T, b Builder) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	New(b, slog.New(slog.DiscardHandler)).Register(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, WellKnownPath, nil))
	return rr
}

func TestHandleManifest(t *testing.T) {
	t.Run("serves the document", func(t *testing.T) {
		doc := &manifest.Document{UCP: manifest.Body{
			Version:  "2026-01-11",
			Services: map[string]manifest.Service{manifest.ShoppingService: {Version: "2026-01-11", Spec: manifest.ServiceSpec}},
		}}

		rr := serve(t, builderFunc(func() (*manifest.Document, error) { return doc, nil }))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.NotEmpty(t, rr.Header().Get("Cache-Control"))
		var got manifest.Document
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "2026-01-11", got.UCP.Version)
	})

	t.Run("missing business is not found", func(t *testing.T) {
		rr := serve(t, builderFunc(func() (*manifest.Document, error) { return nil, manifest.ErrNoBusinessIdentity }))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "not_found")
	})

	t.Run("unexpected failure is internal", func(t *testing.T) {
		rr := serve(t, builderFunc(func() (*manifest.Document, error) { return nil, errors.New("boom") }))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "boom")
	})
}
