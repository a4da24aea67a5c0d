// Package audit records checkout lifecycle and identity-linking events.
package audit

import (
	"context"
	"time"
)

// Action names an audited state change.
type Action string

const (
	ActionCheckoutCreated   Action = "checkout_created"
	ActionCheckoutUpdated   Action = "checkout_updated"
	ActionCheckoutCanceled  Action = "checkout_canceled"
	ActionCheckoutCompleted Action = "checkout_completed"
	ActionPaymentAttempted  Action = "payment_attempted"
	ActionPaymentRejected   Action = "payment_rejected"
	ActionIdentityLinked    Action = "identity_linked"
)

// Event is emitted from the shopping service after a state change has been
// persisted. Transport-agnostic so stores can fan out.
type Event struct {
	Timestamp      time.Time
	Action         Action
	CheckoutID     string
	OrderID        string
	Status         string
	PaymentHandler string
	PaymentStatus  string
	AccountID      string
	Platform       string
	Reason         string
	// Correlation fields, filled from the request context when empty.
	RequestID string
	Transport string
	ClientIP  string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCheckout(ctx context.Context, checkoutID string) ([]Event, error)
}
