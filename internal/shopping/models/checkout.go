package models

import (
	"time"

	"ucphost/internal/payment"
)

// CheckoutStatus is the lifecycle state of a checkout session.
type CheckoutStatus string

const (
	CheckoutIncomplete         CheckoutStatus = "incomplete"
	CheckoutRequiresEscalation CheckoutStatus = "requires_escalation"
	CheckoutReadyForComplete   CheckoutStatus = "ready_for_complete"
	CheckoutCompleteInProgress CheckoutStatus = "complete_in_progress"
	CheckoutCompleted          CheckoutStatus = "completed"
	CheckoutCanceled           CheckoutStatus = "canceled"
)

// Terminal reports whether no further transition is allowed.
func (s CheckoutStatus) Terminal() bool {
	return s == CheckoutCompleted || s == CheckoutCanceled
}

// OrderRef points from a completed checkout to its order.
type OrderRef struct {
	ID           string `json:"id"`
	PermalinkURL string `json:"permalink_url"`
}

// Checkout is a checkout session.
type Checkout struct {
	ID              string
	Status          CheckoutStatus
	Currency        string
	LineItems       []LineItem
	Totals          []Total
	Buyer           *Buyer
	Messages        []Message
	Links           []Link
	PaymentHandlers []payment.Declaration
	ContinueURL     string
	Order           *OrderRef
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       time.Time
}

// Clone returns a copy that shares no mutable state with c.
func (c *Checkout) Clone() *Checkout {
	out := *c
	out.LineItems = cloneLineItems(c.LineItems)
	out.Totals = append([]Total(nil), c.Totals...)
	out.Buyer = c.Buyer.clone()
	out.Messages = append([]Message(nil), c.Messages...)
	out.Links = append([]Link(nil), c.Links...)
	out.PaymentHandlers = append([]payment.Declaration(nil), c.PaymentHandlers...)
	if c.Order != nil {
		ref := *c.Order
		out.Order = &ref
	}
	return &out
}

// Fields returns the wire representation of the checkout.
func (c *Checkout) Fields() map[string]any {
	lineItems := c.LineItems
	if lineItems == nil {
		lineItems = []LineItem{}
	}
	f := map[string]any{
		"id":         c.ID,
		"status":     string(c.Status),
		"currency":   c.Currency,
		"line_items": lineItems,
		"totals":     c.Totals,
		"links":      c.Links,
		"payment":    map[string]any{"handlers": c.PaymentHandlers},
		"expires_at": c.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if c.Buyer != nil {
		f["buyer"] = c.Buyer
	}
	if len(c.Messages) > 0 {
		f["messages"] = c.Messages
	}
	if c.ContinueURL != "" {
		f["continue_url"] = c.ContinueURL
	}
	if c.Order != nil {
		f["order"] = c.Order
	}
	return f
}

// LineItemInput is a requested item and quantity.
type LineItemInput struct {
	Item     ItemRef `json:"item"`
	Quantity int     `json:"quantity"`
}

// ItemRef identifies a catalog item.
type ItemRef struct {
	ID string `json:"id"`
}

// CheckoutRequest creates a checkout or replaces its mutable fields.
type CheckoutRequest struct {
	Currency  string          `json:"currency,omitempty"`
	LineItems []LineItemInput `json:"line_items,omitempty"`
	Buyer     *Buyer          `json:"buyer,omitempty"`
}

// UpdateCheckoutRequest updates an existing checkout.
type UpdateCheckoutRequest struct {
	ID string `json:"id"`
	CheckoutRequest
}

// PaymentData carries the credential used to complete a checkout.
type PaymentData struct {
	HandlerID  string             `json:"handler_id"`
	Credential payment.Credential `json:"credential"`
}

// CompleteCheckoutRequest completes a checkout.
type CompleteCheckoutRequest struct {
	ID             string      `json:"id"`
	Payment        PaymentData `json:"payment"`
	IdempotencyKey string      `json:"idempotency_key,omitempty"`
}

// IDRequest names a checkout or order.
type IDRequest struct {
	ID string `json:"id"`
}
