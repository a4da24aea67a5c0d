// Package models holds the shopping wire and state types.
//
// Monetary amounts are integers in minor currency units. Every response type
// implements Fields so the envelope layer can merge it without reflection.
package models

// Item is a purchasable product.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Price       int64  `json:"price"`
	ImageURL    string `json:"image_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// PostalAddress is a shipping or billing address.
type PostalAddress struct {
	StreetAddress   string `json:"street_address,omitempty"`
	AddressLocality string `json:"address_locality,omitempty"`
	AddressRegion   string `json:"address_region,omitempty"`
	PostalCode      string `json:"postal_code,omitempty"`
	AddressCountry  string `json:"address_country,omitempty"`
}

// Buyer is the person checking out.
type Buyer struct {
	ID              string         `json:"id,omitempty"`
	Email           string         `json:"email,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	FirstName       string         `json:"first_name,omitempty"`
	LastName        string         `json:"last_name,omitempty"`
	ShippingAddress *PostalAddress `json:"shipping_address,omitempty"`
	BillingAddress  *PostalAddress `json:"billing_address,omitempty"`
}

func (b *Buyer) clone() *Buyer {
	if b == nil {
		return nil
	}
	out := *b
	if b.ShippingAddress != nil {
		addr := *b.ShippingAddress
		out.ShippingAddress = &addr
	}
	if b.BillingAddress != nil {
		addr := *b.BillingAddress
		out.BillingAddress = &addr
	}
	return &out
}

// MessageType classifies a message attached to a checkout.
type MessageType string

const (
	MessageError   MessageType = "error"
	MessageWarning MessageType = "warning"
	MessageInfo    MessageType = "info"
)

// Severity tells the platform how an error message can be resolved.
type Severity string

const (
	SeverityRecoverable         Severity = "recoverable"
	SeverityRequiresBuyerInput  Severity = "requires_buyer_input"
	SeverityRequiresBuyerReview Severity = "requires_buyer_review"
)

// Message is a checkout message for the platform or buyer.
type Message struct {
	Type        MessageType `json:"type"`
	Code        string      `json:"code,omitempty"`
	Path        string      `json:"path,omitempty"`
	ContentType string      `json:"content_type"`
	Content     string      `json:"content"`
	Severity    Severity    `json:"severity,omitempty"`
}

// ErrorMessage builds an error message with plain content.
func ErrorMessage(code, path, content string, severity Severity) Message {
	return Message{Type: MessageError, Code: code, Path: path, ContentType: "plain", Content: content, Severity: severity}
}

// InfoMessage builds an info message with plain content.
func InfoMessage(code, content string) Message {
	return Message{Type: MessageInfo, Code: code, ContentType: "plain", Content: content}
}

// Link is a related resource such as terms of service.
type Link struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Title string `json:"title,omitempty"`
}

// TotalType names a total line.
type TotalType string

const (
	TotalSubtotal      TotalType = "subtotal"
	TotalItemsDiscount TotalType = "items_discount"
	TotalDiscount      TotalType = "discount"
	TotalFulfillment   TotalType = "fulfillment"
	TotalTax           TotalType = "tax"
	TotalFee           TotalType = "fee"
	TotalTotal         TotalType = "total"
)

// Total is one line of a totals breakdown.
type Total struct {
	Type        TotalType `json:"type"`
	Amount      int64     `json:"amount"`
	DisplayText string    `json:"display_text,omitempty"`
}

// LineItem is an item and quantity in a checkout or order.
type LineItem struct {
	ID       string  `json:"id"`
	Item     Item    `json:"item"`
	Quantity int     `json:"quantity"`
	Totals   []Total `json:"totals"`
	ParentID string  `json:"parent_id,omitempty"`
}

func cloneLineItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	for i, li := range items {
		out[i] = li
		out[i].Totals = append([]Total(nil), li.Totals...)
	}
	return out
}
