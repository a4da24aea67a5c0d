// Package handler is the REST binding of the shopping capabilities.
//
// Every response body is a normalized envelope, including failures, so
// platforms always find the "ucp" metadata block.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ucphost/internal/capability"
	"ucphost/internal/envelope"
	"ucphost/internal/manifest"
	"ucphost/internal/platform/middleware"
	"ucphost/internal/shopping"
	"ucphost/internal/shopping/models"
	dErrors "ucphost/pkg/domain-errors"
	"ucphost/pkg/platform/httputil"
	"ucphost/pkg/requestcontext"
)

const (
	transportName = "rest"

	// IdempotencyKeyHeader may carry the idempotency key of a completion.
	IdempotencyKeyHeader = "Idempotency-Key"
)

// Handler serves the shopping REST endpoints.
type Handler struct {
	service    shopping.Service
	bridge     *envelope.Bridge
	logger     *slog.Logger
	middleware []func(http.Handler) http.Handler
}

// New creates the REST handler. mw runs inside the /ucp/v1 route group after
// the transport is recorded.
func New(service shopping.Service, bridge *envelope.Bridge, logger *slog.Logger, mw ...func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{service: service, bridge: bridge, logger: logger, middleware: mw}
}

// Register mounts the REST routes under manifest.RESTPath.
func (h *Handler) Register(r chi.Router) {
	r.Route(manifest.RESTPath, func(r chi.Router) {
		r.Use(middleware.Transport(transportName))
		r.Use(h.middleware...)

		r.Post("/checkout-sessions", h.HandleCreateCheckout)
		r.Get("/checkout-sessions/{id}", h.HandleGetCheckout)
		r.Put("/checkout-sessions/{id}", h.HandleUpdateCheckout)
		r.Post("/checkout-sessions/{id}/complete", h.HandleCompleteCheckout)
		r.Post("/checkout-sessions/{id}/cancel", h.HandleCancelCheckout)
		r.Get("/orders/{id}", h.HandleGetOrder)
		r.Post("/identity-linking", h.HandleLinkIdentity)
	})
}

// HandleCreateCheckout handles POST /checkout-sessions.
func (h *Handler) HandleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if !h.decode(w, r, capability.Checkout, &req) {
		return
	}
	h.respond(w, r, capability.Checkout, http.StatusCreated, func(ctx context.Context) (any, error) {
		return h.service.CreateCheckout(ctx, req)
	})
}

// HandleGetCheckout handles GET /checkout-sessions/{id}.
func (h *Handler) HandleGetCheckout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.respond(w, r, capability.Checkout, http.StatusOK, func(ctx context.Context) (any, error) {
		return h.service.GetCheckout(ctx, id)
	})
}

// HandleUpdateCheckout handles PUT /checkout-sessions/{id}.
func (h *Handler) HandleUpdateCheckout(w http.ResponseWriter, r *http.Request) {
	var body models.CheckoutRequest
	if !h.decode(w, r, capability.Checkout, &body) {
		return
	}
	req := models.UpdateCheckoutRequest{ID: chi.URLParam(r, "id"), CheckoutRequest: body}
	h.respond(w, r, capability.Checkout, http.StatusOK, func(ctx context.Context) (any, error) {
		return h.service.UpdateCheckout(ctx, req)
	})
}

// HandleCompleteCheckout handles POST /checkout-sessions/{id}/complete.
func (h *Handler) HandleCompleteCheckout(w http.ResponseWriter, r *http.Request) {
	var req models.CompleteCheckoutRequest
	if !h.decode(w, r, capability.Checkout, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get(IdempotencyKeyHeader)
	}
	h.respond(w, r, capability.Checkout, http.StatusOK, func(ctx context.Context) (any, error) {
		return h.service.CompleteCheckout(ctx, req)
	})
}

// HandleCancelCheckout handles POST /checkout-sessions/{id}/cancel.
func (h *Handler) HandleCancelCheckout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.respond(w, r, capability.Checkout, http.StatusOK, func(ctx context.Context) (any, error) {
		return h.service.CancelCheckout(ctx, id)
	})
}

// HandleGetOrder handles GET /orders/{id}.
func (h *Handler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.respond(w, r, capability.Order, http.StatusOK, func(ctx context.Context) (any, error) {
		return h.service.GetOrder(ctx, id)
	})
}

// HandleLinkIdentity handles POST /identity-linking.
func (h *Handler) HandleLinkIdentity(w http.ResponseWriter, r *http.Request) {
	var req models.LinkIdentityRequest
	if !h.decode(w, r, capability.IdentityLinking, &req) {
		return
	}
	h.respond(w, r, capability.IdentityLinking, http.StatusOK, func(ctx context.Context) (any, error) {
		return h.service.LinkIdentity(ctx, req)
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, capabilityName string, dst any) bool {
	if err := httputil.DecodeJSON(r, dst); err != nil {
		ctx := r.Context()
		h.logger.WarnContext(ctx, "invalid request body",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteJSON(w, dErrors.ToHTTPStatus(dErrors.CodeBadRequest), envelope.ErrorEnvelope(capabilityName, err))
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, capabilityName string, status int, call envelope.Invocation) {
	env, err := h.bridge.Invoke(r.Context(), capabilityName, call)
	if err != nil {
		status = http.StatusInternalServerError
		if de, ok := dErrors.As(err); ok {
			status = dErrors.ToHTTPStatus(de.Code)
		}
	}
	httputil.WriteJSON(w, status, env)
}
