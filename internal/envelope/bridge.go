package envelope

import (
	"context"
	"log/slog"
	"time"

	"ucphost/internal/envelope/metrics"
	dErrors "ucphost/pkg/domain-errors"
	"ucphost/pkg/requestcontext"
)

// GenericErrorMessage replaces the message of errors that are not client-safe.
const GenericErrorMessage = "an internal error occurred while processing the request"

// Invocation is a downstream business-logic call.
type Invocation func(ctx context.Context) (any, error)

// Bridge runs invocations on behalf of a transport and shapes their outcome
// into envelopes.
type Bridge struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewBridge creates a bridge. logger and m may be nil.
func NewBridge(logger *slog.Logger, m *metrics.Metrics) *Bridge {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bridge{logger: logger, metrics: m}
}

// Invoke runs call and normalizes its result for capabilityName.
//
// On failure the returned envelope carries only the metadata block and a
// sanitized "error" field; the original error is returned alongside so the
// transport can pick a status code. Full diagnostics go to the log.
func (b *Bridge) Invoke(ctx context.Context, capabilityName string, call Invocation) (Envelope, error) {
	start := time.Now()
	raw, err := call(ctx)
	b.metrics.ObserveInvocationLatency(capabilityName, time.Since(start))

	if err != nil {
		code := dErrors.CodeInternal
		if de, ok := dErrors.As(err); ok {
			code = de.Code
		}
		b.metrics.IncrementInvocationFailure(capabilityName, string(code))
		b.logger.ErrorContext(ctx, "capability invocation failed",
			"capability", capabilityName,
			"code", code,
			"request_id", requestcontext.RequestID(ctx),
			"transport", requestcontext.Transport(ctx),
			"error", err,
		)
		return ErrorEnvelope(capabilityName, err), err
	}

	result := Classify(raw)
	b.metrics.IncrementNormalization(capabilityName, result.Shape())
	return NormalizeResult(capabilityName, result), nil
}

// ErrorEnvelope builds the minimal envelope returned for a failed invocation.
func ErrorEnvelope(capabilityName string, err error) Envelope {
	env := New(capabilityName)
	env.Set("error", Sanitize(err))
	return env
}

// Sanitize returns the message of err that is safe to put on the wire.
func Sanitize(err error) string {
	if de, ok := dErrors.As(err); ok && dErrors.ClientSafe(de.Code) && de.Message != "" {
		return de.Message
	}
	return GenericErrorMessage
}
