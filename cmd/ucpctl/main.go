// Package main provides ucpctl, an operator tool for checking a host's
// discovery file, rendering its manifest and trying negotiation against a
// platform profile without starting the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ucphost/internal/capability"
	"ucphost/internal/discovery"
	"ucphost/internal/manifest"
	"ucphost/internal/negotiation"
	"ucphost/internal/payment"
	"ucphost/internal/payment/tokenizer"
	"ucphost/internal/platform/logger"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type hostFlags struct {
	discoveryFile   string
	baseURL         string
	businessName    string
	businessVersion string
}

func rootCmd() *cobra.Command {
	var host hostFlags

	cmd := &cobra.Command{
		Use:           "ucpctl",
		Short:         "Inspect a UCP business host configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&host.discoveryFile, "discovery", "d", "", "Discovery file (YAML); the built-in layout is used when empty")
	cmd.PersistentFlags().StringVar(&host.baseURL, "base-url", "http://localhost:8080", "Public base URL of the host")
	cmd.PersistentFlags().StringVar(&host.businessName, "business-name", "Example Store", "Business name for the built-in layout")
	cmd.PersistentFlags().StringVar(&host.businessVersion, "business-version", capability.StandardVersion, "Protocol version for the built-in layout")

	cmd.AddCommand(
		validateCmd(),
		schemaCmd(),
		manifestCmd(&host),
		negotiateCmd(&host),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "ucpctl version %s\n", version)
			},
		},
	)
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a discovery file against the schema and build its registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read discovery file: %w", err)
			}
			if err := discovery.Validate(data); err != nil {
				return err
			}
			feed, err := discovery.Parse(data)
			if err != nil {
				return err
			}
			registry, err := capability.Build(feed)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: ok\n", args[0])
			for _, d := range registry.All() {
				fmt.Fprintf(out, "  %s %s\n", d.Name, d.Version)
			}
			return nil
		},
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the discovery file format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := discovery.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func manifestCmd(host *hostFlags) *cobra.Command {
	var transports manifest.Transports

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Render the /.well-known/ucp document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, payments, err := host.build()
			if err != nil {
				return err
			}
			doc, err := manifest.NewBuilder(registry, payments, manifest.Endpoints(host.baseURL, transports)).Build()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().BoolVar(&transports.MCP, "mcp", true, "Advertise the MCP endpoint")
	cmd.Flags().BoolVar(&transports.A2A, "a2a", true, "Advertise the JSON-RPC endpoint")
	return cmd
}

type negotiationReport struct {
	ProfileURL      string                  `json:"profile_url,omitempty"`
	Negotiated      bool                    `json:"negotiated"`
	Version         string                  `json:"version"`
	Capabilities    []capability.Descriptor `json:"capabilities"`
	PaymentHandlers []payment.Declaration   `json:"payment_handlers"`
	FetchError      string                  `json:"fetch_error,omitempty"`
}

func negotiateCmd(host *hostFlags) *cobra.Command {
	var (
		timeout  time.Duration
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "negotiate PROFILE_URL",
		Short: "Negotiate capabilities against a platform profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, payments, err := host.build()
			if err != nil {
				return err
			}
			log := logger.NewWithWriter(cmd.ErrOrStderr(), "text", logLevel)
			fetcher := negotiation.NewFetcher(negotiation.WithFetchTimeout(timeout), negotiation.WithLogger(log))

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout+time.Second)
			defer cancel()
			result, err := negotiation.New(registry, payments, fetcher, log).Resolve(ctx, args[0])
			if err != nil {
				return err
			}

			report := negotiationReport{
				ProfileURL:      result.ProfileURL,
				Negotiated:      result.Negotiated(),
				Version:         result.Version,
				Capabilities:    result.Capabilities,
				PaymentHandlers: result.PaymentHandlers,
			}
			if result.FetchError != nil {
				report.FetchError = result.FetchError.Error()
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Profile fetch timeout")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	return cmd
}

func (h *hostFlags) build() (*capability.Registry, *payment.Registry, error) {
	var feed capability.Feed
	if h.discoveryFile != "" {
		f, err := discovery.LoadFile(h.discoveryFile)
		if err != nil {
			return nil, nil, err
		}
		feed = f
	} else {
		feed = discovery.NewStaticFeed(
			discovery.BusinessRecord("merchant", capability.BusinessIdentity{Name: h.businessName, Version: h.businessVersion}),
			discovery.ProviderRecord("shopping"),
		)
	}
	registry, err := capability.Build(feed)
	if err != nil {
		return nil, nil, err
	}
	payments := payment.NewRegistry()
	payments.Register(tokenizer.Name, tokenizer.New(h.baseURL))
	return registry, payments, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
