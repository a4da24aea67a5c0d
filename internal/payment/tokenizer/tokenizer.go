// Package tokenizer is a reference payment handler for tokenized credentials.
//
// Tokens follow test-token conventions so platforms can exercise every
// processing status without a live processor:
//
//	tok_decline_*  -> failed
//	tok_pending_*  -> pending
//	tok_3ds_*      -> requires_action
//	anything else  -> success
package tokenizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ucphost/internal/payment"
)

const (
	// Name is the handler's registered name.
	Name = "com.example.tokenizer"
	// CredentialSchema is the only instrument schema the handler accepts.
	CredentialSchema = "https://ucp.dev/schemas/payment/token_credential.json"

	provider = "example"
)

// Handler implements payment.Handler for opaque processor tokens.
type Handler struct {
	actionBaseURL string
}

// New creates a tokenizer handler. actionBaseURL prefixes buyer action links
// returned with requires_action results.
func New(actionBaseURL string) *Handler {
	return &Handler{actionBaseURL: strings.TrimRight(actionBaseURL, "/")}
}

// Declaration advertises the handler and its accepted credential schema.
func (h *Handler) Declaration() payment.Declaration {
	return payment.Declaration{
		Name:              Name,
		Version:           "2026-01-11",
		Spec:              "https://ucp.dev/specification/payment-handlers",
		InstrumentSchemas: []string{CredentialSchema},
	}
}

// AcquireInstrument converts a token credential into an instrument.
func (h *Handler) AcquireInstrument(_ context.Context, credential payment.Credential, _ payment.BindingContext) (*payment.Instrument, error) {
	if !h.Declaration().SupportsSchema(credential.Schema) {
		return nil, fmt.Errorf("%w: unsupported credential schema %q", payment.ErrInstrumentAcquisitionFailed, credential.Schema)
	}
	token := tokenFrom(credential.Data)
	if token == "" {
		return nil, fmt.Errorf("%w: credential carries no token", payment.ErrInstrumentAcquisitionFailed)
	}
	return &payment.Instrument{
		ID:       "instr_" + uuid.NewString(),
		Type:     credential.Type,
		Provider: provider,
		Data:     map[string]string{"token": token},
		Schema:   credential.Schema,
	}, nil
}

// ProcessPayment charges the instrument's token.
func (h *Handler) ProcessPayment(_ context.Context, instrument *payment.Instrument) (*payment.ProcessingResult, error) {
	token := tokenFrom(instrument.Data)
	switch {
	case strings.HasPrefix(token, "tok_decline"):
		return &payment.ProcessingResult{Status: payment.StatusFailed, Message: "card declined"}, nil
	case strings.HasPrefix(token, "tok_pending"):
		return &payment.ProcessingResult{
			Status:        payment.StatusPending,
			TransactionID: "txn_" + uuid.NewString(),
			Message:       "awaiting processor confirmation",
		}, nil
	case strings.HasPrefix(token, "tok_3ds"):
		return &payment.ProcessingResult{
			Status:  payment.StatusRequiresAction,
			Message: "buyer authentication required",
			Data:    map[string]string{"action_url": h.actionBaseURL + "/payments/3ds/" + instrument.ID},
		}, nil
	default:
		return &payment.ProcessingResult{
			Status:        payment.StatusSuccess,
			TransactionID: "txn_" + uuid.NewString(),
		}, nil
	}
}

func tokenFrom(data any) string {
	switch v := data.(type) {
	case string:
		return v
	case map[string]string:
		return v["token"]
	case map[string]any:
		token, _ := v["token"].(string)
		return token
	}
	return ""
}
