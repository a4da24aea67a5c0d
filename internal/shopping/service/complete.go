package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"ucphost/internal/audit"
	"ucphost/internal/negotiation"
	"ucphost/internal/payment"
	"ucphost/internal/shopping/models"
	dErrors "ucphost/pkg/domain-errors"
	"ucphost/pkg/requestcontext"
)

const defaultTransport = "rest"

// CompleteCheckout dispatches the payment credential and applies the outcome.
// The checkout is held in complete_in_progress while the handler runs so a
// concurrent complete or cancel is rejected.
func (s *Service) CompleteCheckout(ctx context.Context, req models.CompleteCheckoutRequest) (any, error) {
	if req.ID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "checkout id is required")
	}
	if req.Payment.HandlerID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "payment handler_id is required")
	}
	if err := s.checkNegotiatedHandler(ctx, req.Payment.HandlerID); err != nil {
		return nil, err
	}

	var previous models.CheckoutStatus
	_, err := s.store.UpdateCheckout(ctx, req.ID, func(c *models.Checkout) error {
		if err := mutable(c); err != nil {
			return err
		}
		if c.Status != models.CheckoutReadyForComplete && c.Status != models.CheckoutRequiresEscalation {
			return dErrors.New(dErrors.CodeValidation, "checkout is not ready for completion")
		}
		previous = c.Status
		c.Status = models.CheckoutCompleteInProgress
		c.UpdatedAt = requestcontext.Now(ctx)
		return nil
	})
	if err != nil {
		return nil, translate(err, "checkout")
	}

	result, err := s.dispatcher.Dispatch(ctx, req.Payment.HandlerID, req.Payment.Credential, s.binding(ctx))
	if err != nil {
		s.emit(ctx, audit.Event{
			Action:         audit.ActionPaymentRejected,
			CheckoutID:     req.ID,
			PaymentHandler: req.Payment.HandlerID,
			Reason:         err.Error(),
		})
		return nil, s.abandon(ctx, req.ID, previous, err)
	}

	var order *models.Order
	updated, err := s.store.UpdateCheckout(ctx, req.ID, func(c *models.Checkout) error {
		now := requestcontext.Now(ctx)
		c.UpdatedAt = now
		c.Messages = nil
		switch result.Status {
		case payment.StatusSuccess:
			order = s.newOrder(c, result, now)
			c.Status = models.CheckoutCompleted
			c.ContinueURL = ""
			c.Order = &models.OrderRef{ID: order.ID, PermalinkURL: order.PermalinkURL}
		case payment.StatusPending:
			c.Messages = append(c.Messages, models.InfoMessage("payment_pending", pendingMessage(result)))
		case payment.StatusRequiresAction:
			c.Status = models.CheckoutRequiresEscalation
			c.ContinueURL = actionURL(result)
			c.Messages = append(c.Messages, models.ErrorMessage("payment_requires_action", "$.payment",
				"Additional buyer action is required to complete the payment.", models.SeverityRequiresBuyerReview))
		case payment.StatusFailed:
			c.Status = models.CheckoutReadyForComplete
			content := result.Message
			if content == "" {
				content = "The payment was declined."
			}
			c.Messages = append(c.Messages, models.ErrorMessage("payment_declined", "$.payment", content, models.SeverityRecoverable))
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "checkout")
	}

	if order != nil {
		if err := s.store.CreateOrder(ctx, order); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save order")
		}
	}
	s.logger.InfoContext(ctx, "checkout completion processed",
		"checkout_id", req.ID,
		"payment_handler", req.Payment.HandlerID,
		"payment_status", result.Status,
		"checkout_status", updated.Status,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:         audit.ActionPaymentAttempted,
		CheckoutID:     req.ID,
		Status:         string(updated.Status),
		PaymentHandler: req.Payment.HandlerID,
		PaymentStatus:  string(result.Status),
	})
	if order != nil {
		s.emit(ctx, audit.Event{
			Action:         audit.ActionCheckoutCompleted,
			CheckoutID:     req.ID,
			OrderID:        order.ID,
			Status:         string(updated.Status),
			PaymentHandler: req.Payment.HandlerID,
		})
	}
	return updated, nil
}

// abandon restores the pre-completion status and maps the dispatch error.
func (s *Service) abandon(ctx context.Context, id string, previous models.CheckoutStatus, dispatchErr error) error {
	if _, err := s.store.UpdateCheckout(ctx, id, func(c *models.Checkout) error {
		c.Status = previous
		c.UpdatedAt = requestcontext.Now(ctx)
		return nil
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to restore checkout status", "checkout_id", id, "error", err)
	}

	switch {
	case errors.Is(dispatchErr, payment.ErrUnknownPaymentHandler):
		return dErrors.Wrap(dispatchErr, dErrors.CodeBadRequest, "unknown payment handler")
	case errors.Is(dispatchErr, payment.ErrInstrumentAcquisitionFailed):
		return dErrors.Wrap(dispatchErr, dErrors.CodeValidation, "payment credential was not accepted")
	default:
		return dErrors.Wrap(dispatchErr, dErrors.CodeUnavailable, "payment processing is unavailable")
	}
}

func (s *Service) checkNegotiatedHandler(ctx context.Context, name string) error {
	result, ok := negotiation.FromContext(ctx)
	if !ok || !result.Negotiated() {
		return nil
	}
	if !slices.ContainsFunc(result.PaymentHandlers, func(d payment.Declaration) bool { return d.Name == name }) {
		return dErrors.New(dErrors.CodeBadRequest, "payment handler "+name+" was not negotiated")
	}
	return nil
}

func (s *Service) binding(ctx context.Context) payment.BindingContext {
	b := payment.BindingContext{Transport: requestcontext.Transport(ctx)}
	if b.Transport == "" {
		b.Transport = defaultTransport
	}
	if result, ok := negotiation.FromContext(ctx); ok {
		b.PlatformProfileURI = result.ProfileURL
	}
	return b
}

func (s *Service) newOrder(c *models.Checkout, result *payment.ProcessingResult, now time.Time) *models.Order {
	id := "ord_" + uuid.NewString()
	o := &models.Order{
		ID:           id,
		CheckoutID:   c.ID,
		Status:       models.OrderConfirmed,
		Currency:     c.Currency,
		Payment:      *result,
		PermalinkURL: s.cfg.BaseURL + "/orders/" + id,
		CreatedAt:    now,
	}
	// The order gets its own copy; the checkout keeps mutating under the store.
	snapshot := c.Clone()
	o.LineItems = snapshot.LineItems
	o.Totals = snapshot.Totals
	o.Buyer = snapshot.Buyer
	return o
}

func actionURL(result *payment.ProcessingResult) string {
	switch data := result.Data.(type) {
	case map[string]string:
		return data["action_url"]
	case map[string]any:
		u, _ := data["action_url"].(string)
		return u
	}
	return ""
}

func pendingMessage(result *payment.ProcessingResult) string {
	if result.Message != "" {
		return result.Message
	}
	return "The payment is being processed."
}
