package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ucphost/internal/payment/metrics"
)

const tracerName = "ucphost/internal/payment"

// Dispatcher drives one payment attempt through a registered handler.
// It never retries; pending and requires_action results are returned as-is
// for the caller to resolve.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// NewDispatcher creates a dispatcher over registry. logger and m may be nil.
func NewDispatcher(registry *Registry, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		registry: registry,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer(tracerName),
	}
}

// Dispatch acquires an instrument from credential and processes it with the
// handler registered under handlerName.
func (d *Dispatcher) Dispatch(ctx context.Context, handlerName string, credential Credential, binding BindingContext) (*ProcessingResult, error) {
	handler, ok := d.registry.Get(handlerName)
	if !ok {
		d.metrics.IncrementUnknownHandler()
		return nil, fmt.Errorf("%w: %s", ErrUnknownPaymentHandler, handlerName)
	}

	ctx, span := d.tracer.Start(ctx, "payment.dispatch", trace.WithAttributes(
		attribute.String("payment.handler", handlerName),
		attribute.String("payment.transport", binding.Transport),
	))
	defer span.End()

	start := time.Now()
	defer func() { d.metrics.ObserveDispatchLatency(handlerName, time.Since(start)) }()

	instrument, err := handler.AcquireInstrument(ctx, credential, binding)
	if err != nil || instrument == nil {
		d.metrics.IncrementAcquisitionFailure(handlerName)
		if err == nil {
			err = ErrInstrumentAcquisitionFailed
		}
		if !errors.Is(err, ErrInstrumentAcquisitionFailed) {
			err = fmt.Errorf("%w: %w", ErrInstrumentAcquisitionFailed, err)
		}
		span.SetStatus(codes.Error, "instrument acquisition failed")
		d.logger.WarnContext(ctx, "payment instrument acquisition failed",
			"handler", handlerName,
			"credential_schema", credential.Schema,
			"error", err,
		)
		return nil, err
	}

	result, err := handler.ProcessPayment(ctx, instrument)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment processing failed")
		return nil, fmt.Errorf("process payment via %s: %w", handlerName, err)
	}
	if result == nil || !result.Status.Valid() {
		span.SetStatus(codes.Error, "invalid processing result")
		return nil, fmt.Errorf("process payment via %s: handler returned no valid status", handlerName)
	}

	span.SetAttributes(attribute.String("payment.status", string(result.Status)))
	d.metrics.IncrementOutcome(handlerName, string(result.Status))
	d.logger.InfoContext(ctx, "payment processed",
		"handler", handlerName,
		"instrument_id", instrument.ID,
		"status", result.Status,
		"transaction_id", result.TransactionID,
	)
	return result, nil
}
