package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"ucphost/internal/platform/config"
	"ucphost/internal/platform/httpserver"
	"ucphost/internal/platform/logger"
	"ucphost/internal/platform/tracing"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ucphost:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, serviceName, version, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			log.Error("tracing shutdown failed", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := newApp(ctx, cfg, log, reg, reg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.UsingDevSigningKey() {
		log.Warn("using the development JWT signing key; set UCP_JWT_SIGNING_KEY in production")
	}
	identity, _ := a.registry.BusinessIdentity()
	log.Info("starting ucphost",
		"addr", cfg.Addr,
		"base_url", cfg.BaseURL,
		"business", identity.Name,
		"capabilities", len(a.registry.All()),
		"mcp_enabled", cfg.MCPEnabled,
		"a2a_enabled", cfg.A2AEnabled,
		"auth_required", cfg.AuthRequired,
	)

	if err := httpserver.Serve(ctx, httpserver.New(cfg.Addr, a.handler), nil, cfg.ShutdownTimeout); err != nil {
		return err
	}
	log.Info("ucphost stopped")
	return nil
}
