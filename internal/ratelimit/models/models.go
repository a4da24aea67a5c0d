// Package models holds the rate limiting vocabulary shared by stores and middleware.
package models

import (
	"strings"
	"time"
)

// EndpointClass groups operations that share a request budget.
type EndpointClass string

const (
	// ClassRead covers checkout and order lookups.
	ClassRead EndpointClass = "read"
	// ClassWrite covers checkout creation, updates and cancellation, and
	// every JSON-RPC or MCP call.
	ClassWrite EndpointClass = "write"
	// ClassPayment covers checkout completion.
	ClassPayment EndpointClass = "payment"
	// ClassIdentity covers identity-linking token exchange.
	ClassIdentity EndpointClass = "identity"
)

// IsValid checks if the endpoint class is one of the supported values.
func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassRead, ClassWrite, ClassPayment, ClassIdentity:
		return true
	}
	return false
}

// Limit is a request budget over a sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is whole seconds until a denied caller may retry.
	RetryAfter int
}

// Denied builds a denial that resets at resetAt.
func Denied(limit int, now, resetAt time.Time) *Result {
	retry := int(resetAt.Sub(now).Round(time.Second) / time.Second)
	if retry < 1 {
		retry = 1
	}
	return &Result{Allowed: false, Limit: limit, ResetAt: resetAt, RetryAfter: retry}
}

// NewKey builds the bucket key for a client in a class. Segments are
// sanitized so a caller-controlled value cannot address another bucket.
func NewKey(class EndpointClass, client string) string {
	return "rl:" + string(class) + ":" + SanitizeKeySegment(client)
}

// SanitizeKeySegment escapes the key delimiter in a segment.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
