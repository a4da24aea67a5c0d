package shopping

import (
	"bytes"
	"context"
	"encoding/json"

	"ucphost/internal/capability"
	"ucphost/internal/shopping/models"
	dErrors "ucphost/pkg/domain-errors"
)

// Operation names shared by the JSON-RPC and MCP bindings.
const (
	OpCreateCheckout   = "create_checkout"
	OpGetCheckout      = "get_checkout"
	OpUpdateCheckout   = "update_checkout"
	OpCompleteCheckout = "complete_checkout"
	OpCancelCheckout   = "cancel_checkout"
	OpLinkIdentity     = "link_identity"
	OpGetOrder         = "get_order"
)

// Operation is one callable capability operation.
type Operation struct {
	Name        string
	Capability  string
	Description string
	call        func(ctx context.Context, svc Service, params json.RawMessage) (any, error)
}

// Call decodes params and invokes the operation on svc.
func (o Operation) Call(ctx context.Context, svc Service, params json.RawMessage) (any, error) {
	return o.call(ctx, svc, params)
}

var operations = []Operation{
	{
		Name:        OpCreateCheckout,
		Capability:  capability.Checkout,
		Description: "Create a checkout session from line items, currency and buyer details.",
		call: func(ctx context.Context, svc Service, params json.RawMessage) (any, error) {
			req, err := decodeParams[models.CheckoutRequest](params)
			if err != nil {
				return nil, err
			}
			return svc.CreateCheckout(ctx, req)
		},
	},
	{
		Name:        OpGetCheckout,
		Capability:  capability.Checkout,
		Description: "Retrieve a checkout session by id.",
		call: func(ctx context.Context, svc Service, params json.RawMessage) (any, error) {
			req, err := decodeParams[models.IDRequest](params)
			if err != nil {
				return nil, err
			}
			return svc.GetCheckout(ctx, req.ID)
		},
	},
	{
		Name:        OpUpdateCheckout,
		Capability:  capability.Checkout,
		Description: "Update the line items, currency or buyer of a checkout session.",
		call: func(ctx context.Context, svc Service, params json.RawMessage) (any, error) {
			req, err := decodeParams[models.UpdateCheckoutRequest](params)
			if err != nil {
				return nil, err
			}
			return svc.UpdateCheckout(ctx, req)
		},
	},
	{
		Name:        OpCompleteCheckout,
		Capability:  capability.Checkout,
		Description: "Complete a checkout session with a payment credential and place the order.",
		call: func(ctx context.Context, svc Service, params json.RawMessage) (any, error) {
			req, err := decodeParams[models.CompleteCheckoutRequest](params)
			if err != nil {
				return nil, err
			}
			return svc.CompleteCheckout(ctx, req)
		},
	},
	{
		Name:        OpCancelCheckout,
		Capability:  capability.Checkout,
		Description: "Cancel a checkout session that has not been completed.",
		call: func(ctx context.Context, svc Service, params json.RawMessage) (any, error) {
			req, err := decodeParams[models.IDRequest](params)
			if err != nil {
				return nil, err
			}
			return svc.CancelCheckout(ctx, req.ID)
		},
	},
	{
		Name:        OpLinkIdentity,
		Capability:  capability.IdentityLinking,
		Description: "Exchange an authorization grant for an access token bound to the buyer's account.",
		call: func(ctx context.Context, svc Service, params json.RawMessage) (any, error) {
			req, err := decodeParams[models.LinkIdentityRequest](params)
			if err != nil {
				return nil, err
			}
			return svc.LinkIdentity(ctx, req)
		},
	},
	{
		Name:        OpGetOrder,
		Capability:  capability.Order,
		Description: "Retrieve an order by id.",
		call: func(ctx context.Context, svc Service, params json.RawMessage) (any, error) {
			req, err := decodeParams[models.IDRequest](params)
			if err != nil {
				return nil, err
			}
			return svc.GetOrder(ctx, req.ID)
		},
	},
}

// Operations returns every operation in a stable order.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// LookupOperation finds an operation by name.
func LookupOperation(name string) (Operation, bool) {
	for _, op := range operations {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

func decodeParams[T any](params json.RawMessage) (T, error) {
	var out T
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return out, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid params")
	}
	return out, nil
}
