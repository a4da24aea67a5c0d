package payment

import (
	"context"
	"errors"
)

var (
	// ErrUnknownPaymentHandler is a caller error: no handler is registered under the name.
	ErrUnknownPaymentHandler = errors.New("unknown payment handler")
	// ErrInstrumentAcquisitionFailed means the handler refused the credential.
	ErrInstrumentAcquisitionFailed = errors.New("instrument acquisition failed")
)

// Handler turns credentials into instruments and processes payments.
//
// AcquireInstrument must fail with ErrInstrumentAcquisitionFailed (optionally
// wrapped) when the credential schema is not one the handler's declaration
// advertises; the dispatcher does not check schemas itself.
type Handler interface {
	Declaration() Declaration
	AcquireInstrument(ctx context.Context, credential Credential, binding BindingContext) (*Instrument, error)
	ProcessPayment(ctx context.Context, instrument *Instrument) (*ProcessingResult, error)
}
