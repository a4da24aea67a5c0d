package models

import (
	"time"

	"ucphost/internal/payment"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderConfirmed OrderStatus = "confirmed"
	OrderPending   OrderStatus = "pending"
)

// Order is the immutable record created by a completed checkout.
type Order struct {
	ID           string
	CheckoutID   string
	Status       OrderStatus
	Currency     string
	LineItems    []LineItem
	Totals       []Total
	Buyer        *Buyer
	Payment      payment.ProcessingResult
	PermalinkURL string
	CreatedAt    time.Time
}

// Clone returns a copy that shares no mutable state with o.
func (o *Order) Clone() *Order {
	out := *o
	out.LineItems = cloneLineItems(o.LineItems)
	out.Totals = append([]Total(nil), o.Totals...)
	out.Buyer = o.Buyer.clone()
	return &out
}

// Fields returns the wire representation of the order.
func (o *Order) Fields() map[string]any {
	f := map[string]any{
		"id":            o.ID,
		"checkout_id":   o.CheckoutID,
		"status":        string(o.Status),
		"currency":      o.Currency,
		"line_items":    o.LineItems,
		"totals":        o.Totals,
		"permalink_url": o.PermalinkURL,
		"payment": map[string]any{
			"status":         string(o.Payment.Status),
			"transaction_id": o.Payment.TransactionID,
		},
		"created_at": o.CreatedAt.UTC().Format(time.RFC3339),
	}
	if o.Buyer != nil {
		f["buyer"] = o.Buyer
	}
	return f
}
