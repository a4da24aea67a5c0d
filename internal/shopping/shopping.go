// Package shopping defines the primary capability-provider surface of the
// host and the operation table the transports dispatch through.
package shopping

import (
	"context"

	"ucphost/internal/shopping/models"
)

// Service is the primary capability-provider surface. Results are returned
// untyped; transports hand them to the envelope normalizer.
type Service interface {
	CreateCheckout(ctx context.Context, req models.CheckoutRequest) (any, error)
	GetCheckout(ctx context.Context, id string) (any, error)
	UpdateCheckout(ctx context.Context, req models.UpdateCheckoutRequest) (any, error)
	CompleteCheckout(ctx context.Context, req models.CompleteCheckoutRequest) (any, error)
	CancelCheckout(ctx context.Context, id string) (any, error)
	LinkIdentity(ctx context.Context, req models.LinkIdentityRequest) (any, error)
	GetOrder(ctx context.Context, id string) (any, error)
}
