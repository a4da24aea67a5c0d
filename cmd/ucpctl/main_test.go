package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ucphost/internal/capability"
	"ucphost/internal/discovery"
	"ucphost/internal/payment/tokenizer"
)

const discoveryFile = `
units:
  - id: merchant
    business:
      name: Flower Shop
      version: "2026-01-11"
  - id: checkout-service
    rest: true
    provider: true
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "discovery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid file lists capabilities", func(t *testing.T) {
		path := writeFile(t, discoveryFile)

		out, err := execute(t, "validate", path)

		require.NoError(t, err)
		assert.Contains(t, out, "ok")
		assert.Contains(t, out, capability.Checkout)
	})

	t.Run("schema violations are reported", func(t *testing.T) {
		path := writeFile(t, "units:\n  - rest: true\n    grpc: true\n")

		_, err := execute(t, "validate", path)

		assert.ErrorIs(t, err, discovery.ErrInvalidDiscoveryFile)
	})

	t.Run("two providers fail at build", func(t *testing.T) {
		path := writeFile(t, discoveryFile+"  - id: second\n    rest: true\n    provider: true\n")

		_, err := execute(t, "validate", path)

		assert.ErrorIs(t, err, capability.ErrMultipleCapabilityProviders)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "read discovery file")
	})
}

func TestManifestCommand(t *testing.T) {
	path := writeFile(t, discoveryFile)

	out, err := execute(t, "manifest", "--discovery", path, "--base-url", "https://shop.example", "--mcp=false")

	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, out, "https://shop.example/ucp/v1")
	assert.Contains(t, out, "https://shop.example/ucp/jsonrpc")
	assert.NotContains(t, out, "/ucp/mcp")
	assert.Contains(t, out, tokenizer.Name)
}

func TestNegotiateCommand(t *testing.T) {
	t.Run("profile is intersected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ucp":{"version":"2026-01-11","capabilities":[{"name":"dev.ucp.shopping.checkout","version":"2026-01-11"}]}}`))
		}))
		t.Cleanup(srv.Close)

		out, err := execute(t, "negotiate", srv.URL)

		require.NoError(t, err)
		var report negotiationReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.True(t, report.Negotiated)
		require.Len(t, report.Capabilities, 1)
		assert.Equal(t, capability.Checkout, report.Capabilities[0].Name)
		assert.Empty(t, report.PaymentHandlers)
	})

	t.Run("unreachable profile falls back", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		out, err := execute(t, "negotiate", srv.URL)

		require.NoError(t, err)
		var report negotiationReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.False(t, report.Negotiated)
		assert.NotEmpty(t, report.FetchError)
		assert.Len(t, report.Capabilities, 3)
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := execute(t, "negotiate", "ftp://platform.example")
		assert.Error(t, err)
	})
}

func TestSchemaAndVersionCommands(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"units"`)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ucpctl version")
}
