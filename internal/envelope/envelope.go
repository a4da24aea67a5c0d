// Package envelope produces the canonical UCP response envelope.
//
// Every capability invocation, whatever the transport, answers with a JSON
// object carrying the reserved "ucp" metadata block plus business data merged
// from the downstream result:
//
//	{"ucp": {"version": "2026-01-11", "capabilities": [{"name": "...", "version": "..."}]}, "id": "..."}
//
// Normalize is pure and safe for concurrent use. Bridge wraps an invocation,
// normalizes its result and turns downstream failures into a sanitized
// error envelope.
package envelope

import "encoding/json"

const (
	// ProtocolVersion is the UCP protocol version stamped on every envelope.
	ProtocolVersion = "2026-01-11"
	// CapabilityVersion is the version advertised for the invoked capability.
	CapabilityVersion = "2026-01-11"
	// ReservedKey holds the protocol metadata block and is never overwritten.
	ReservedKey = "ucp"
	// StructuredDataPrefix marks a text content item carrying a JSON object.
	StructuredDataPrefix = "__UCP_STRUCTURED_DATA__:"
	// NoResultMessage is placed under "message" when the invocation returned nothing.
	NoResultMessage = "No result returned"
)

// CapabilityRef names a capability inside the metadata block.
type CapabilityRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Metadata is the reserved "ucp" block.
type Metadata struct {
	Version      string          `json:"version"`
	Capabilities []CapabilityRef `json:"capabilities"`
}

// Envelope is the canonical wire response.
type Envelope map[string]any

// New returns an envelope holding only the metadata block for capabilityName.
func New(capabilityName string) Envelope {
	return Envelope{
		ReservedKey: Metadata{
			Version:      ProtocolVersion,
			Capabilities: []CapabilityRef{{Name: capabilityName, Version: CapabilityVersion}},
		},
	}
}

// Metadata returns the reserved block, whether produced by New or decoded
// from the wire.
func (e Envelope) Metadata() (Metadata, bool) {
	switch v := e[ReservedKey].(type) {
	case Metadata:
		return v, true
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return Metadata{}, false
		}
		var m Metadata
		if err := json.Unmarshal(raw, &m); err != nil || m.Version == "" {
			return Metadata{}, false
		}
		return m, true
	}
	return Metadata{}, false
}

// Set stores business data under key. Writes to the reserved key are ignored.
func (e Envelope) Set(key string, value any) {
	if key == ReservedKey {
		return
	}
	e[key] = value
}

// Merge copies fields into the envelope, skipping the reserved key.
func (e Envelope) Merge(fields map[string]any) {
	for k, v := range fields {
		e.Set(k, v)
	}
}
