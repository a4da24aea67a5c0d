package negotiation

import (
	"context"
	"log/slog"

	"ucphost/internal/capability"
	"ucphost/internal/payment"
	dErrors "ucphost/pkg/domain-errors"
)

// Result is the negotiated view of the host for one platform.
type Result struct {
	// ProfileURL is the platform profile the result was computed for; empty
	// when no profile was announced.
	ProfileURL string
	// Version is the protocol version the host answers with.
	Version         string
	Capabilities    []capability.Descriptor
	PaymentHandlers []payment.Declaration
	// FetchError is set when the profile could not be fetched and the
	// business view was used instead.
	FetchError error
}

// Negotiated reports whether the result was intersected with a platform profile.
func (r *Result) Negotiated() bool {
	return r.ProfileURL != "" && r.FetchError == nil
}

// Negotiator intersects platform profiles with the business view of the host.
type Negotiator struct {
	registry *capability.Registry
	payments *payment.Registry
	fetcher  *Fetcher
	logger   *slog.Logger
}

// New creates a negotiator. payments may be nil.
func New(registry *capability.Registry, payments *payment.Registry, fetcher *Fetcher, logger *slog.Logger) *Negotiator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if payments == nil {
		payments = payment.NewRegistry()
	}
	return &Negotiator{
		registry: registry,
		payments: payments,
		fetcher:  fetcher,
		logger:   logger,
	}
}

// BusinessVersion is the protocol version declared by the business identity,
// or the standard version when no identity is declared.
func (n *Negotiator) BusinessVersion() string {
	if identity, ok := n.registry.BusinessIdentity(); ok && identity.Version != "" {
		return identity.Version
	}
	return capability.StandardVersion
}

// Business returns the full, unnegotiated view of the host.
func (n *Negotiator) Business() *Result {
	return &Result{
		Version:         n.BusinessVersion(),
		Capabilities:    n.registry.All(),
		PaymentHandlers: n.payments.Declarations(),
	}
}

// ForProfile negotiates against the platform profile at profileURL.
//
// A profile that cannot be fetched falls back to the business view with
// FetchError set. A platform speaking a newer protocol version than the
// business is rejected with CodeUnsupportedVersion.
func (n *Negotiator) ForProfile(ctx context.Context, profileURL string) (*Result, error) {
	profile, err := n.fetcher.Fetch(ctx, profileURL)
	if err != nil {
		n.logger.WarnContext(ctx, "platform profile unavailable, using business capabilities",
			"profile_url", profileURL,
			"error", err,
		)
		result := n.Business()
		result.ProfileURL = profileURL
		result.FetchError = err
		return result, nil
	}

	version := n.BusinessVersion()
	if !IsCompatible(profile.UCP.Version, version) {
		return nil, dErrors.New(dErrors.CodeUnsupportedVersion,
			"platform protocol version "+profile.UCP.Version+" is newer than supported version "+version)
	}

	result := &Result{
		ProfileURL:      profileURL,
		Version:         version,
		Capabilities:    Negotiate(profile.UCP.Capabilities, n.registry.All()),
		PaymentHandlers: NegotiateHandlers(profile.Handlers(), n.payments.Declarations()),
	}
	n.logger.DebugContext(ctx, "capabilities negotiated",
		"profile_url", profileURL,
		"platform_version", profile.UCP.Version,
		"capabilities", len(result.Capabilities),
		"payment_handlers", len(result.PaymentHandlers),
	)
	return result, nil
}

// Resolve negotiates for a profile URL taken from a request. An empty URL
// yields the business view; a URL that is not http(s) is rejected with
// CodeBadRequest.
func (n *Negotiator) Resolve(ctx context.Context, profileURL string) (*Result, error) {
	if profileURL == "" {
		return n.Business(), nil
	}
	if err := validateProfileURL(profileURL); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid platform profile URL")
	}
	return n.ForProfile(ctx, profileURL)
}

type resultKey struct{}

// WithResult stores a negotiated result in ctx.
func WithResult(ctx context.Context, r *Result) context.Context {
	return context.WithValue(ctx, resultKey{}, r)
}

// FromContext returns the negotiated result stored by Middleware.
func FromContext(ctx context.Context) (*Result, bool) {
	r, ok := ctx.Value(resultKey{}).(*Result)
	return r, ok && r != nil
}
