// Package payment maps payment handler names to implementations and drives the
// credential -> instrument -> processing result flow for one payment attempt.
package payment

import "slices"

// Status is the outcome of processing a payment.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusFailed         Status = "failed"
	StatusPending        Status = "pending"
	StatusRequiresAction Status = "requires_action"
)

// Valid reports whether s is one of the fixed processing statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusPending, StatusRequiresAction:
		return true
	}
	return false
}

// Credential is the payment credential supplied by the platform.
// Data is tokenized; raw card data is never accepted by contract.
type Credential struct {
	Type   string `json:"type"`
	Data   any    `json:"data,omitempty"`
	Schema string `json:"schema"`
}

// BindingContext describes the transport a payment attempt arrived on.
type BindingContext struct {
	// Transport is one of "rest", "mcp", "a2a", "embedded".
	Transport          string `json:"transport"`
	PlatformProfileURI string `json:"platform_profile_uri,omitempty"`
	Metadata           any    `json:"metadata,omitempty"`
}

// Instrument is a provider-specific, tokenized payment instrument.
// Instruments are created per attempt and never reused.
type Instrument struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Provider string `json:"provider"`
	Data     any    `json:"data,omitempty"`
	Schema   string `json:"schema"`
}

// ProcessingResult is the outcome of ProcessPayment.
type ProcessingResult struct {
	Status        Status `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
	Message       string `json:"message,omitempty"`
	Data          any    `json:"data,omitempty"`
}

// Declaration is what a handler advertises to platforms.
type Declaration struct {
	Name              string   `json:"name"`
	Version           string   `json:"version"`
	Spec              string   `json:"spec,omitempty"`
	ConfigSchema      string   `json:"config_schema,omitempty"`
	InstrumentSchemas []string `json:"instrument_schemas"`
	Config            any      `json:"config,omitempty"`
}

// SupportsSchema reports whether schema is one of the advertised instrument schemas.
func (d Declaration) SupportsSchema(schema string) bool {
	return schema != "" && slices.Contains(d.InstrumentSchemas, schema)
}
