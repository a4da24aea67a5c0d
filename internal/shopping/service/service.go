// Package service is the reference merchant implementation of the shopping
// capability-provider surface.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ucphost/internal/audit"
	jwttoken "ucphost/internal/jwt_token"
	"ucphost/internal/negotiation"
	"ucphost/internal/payment"
	"ucphost/internal/shopping"
	"ucphost/internal/shopping/models"
	dErrors "ucphost/pkg/domain-errors"
	"ucphost/pkg/email"
	"ucphost/pkg/platform/sentinel"
	"ucphost/pkg/requestcontext"
)

// Store persists checkouts and orders.
type Store interface {
	CreateCheckout(ctx context.Context, c *models.Checkout) error
	FindCheckout(ctx context.Context, id string) (*models.Checkout, error)
	UpdateCheckout(ctx context.Context, id string, fn func(*models.Checkout) error) (*models.Checkout, error)
	CreateOrder(ctx context.Context, o *models.Order) error
	FindOrder(ctx context.Context, id string) (*models.Order, error)
}

// PaymentDispatcher runs one payment attempt.
type PaymentDispatcher interface {
	Dispatch(ctx context.Context, handlerName string, credential payment.Credential, binding payment.BindingContext) (*payment.ProcessingResult, error)
}

// HandlerDeclarations lists the payment handlers the business accepts.
type HandlerDeclarations interface {
	Declarations() []payment.Declaration
}

// TokenIssuer mints and verifies identity-linking tokens.
type TokenIssuer interface {
	GenerateToken(use jwttoken.TokenUse, accountID, platform, scope string, expiresIn time.Duration) (string, error)
	ValidateTokenUse(token string, use jwttoken.TokenUse) (*jwttoken.Claims, error)
}

// Auditor records checkout lifecycle events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Config holds merchant settings.
type Config struct {
	BaseURL         string
	Currency        string
	CheckoutTTL     time.Duration
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Catalog         []models.Item
}

const (
	defaultCurrency        = "USD"
	defaultCheckoutTTL     = 6 * time.Hour
	defaultAccessTokenTTL  = time.Hour
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
)

var _ shopping.Service = (*Service)(nil)

// Service implements shopping.Service.
type Service struct {
	store      Store
	dispatcher PaymentDispatcher
	handlers   HandlerDeclarations
	tokens     TokenIssuer
	catalog    map[string]models.Item
	cfg        Config
	logger     *slog.Logger
	auditor    Auditor
}

type Option func(*Service)

// WithAuditor sends lifecycle events to a.
func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

// New creates the merchant service.
func New(store Store, dispatcher PaymentDispatcher, handlers HandlerDeclarations, tokens TokenIssuer, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	if cfg.CheckoutTTL <= 0 {
		cfg.CheckoutTTL = defaultCheckoutTTL
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = defaultAccessTokenTTL
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	catalog := make(map[string]models.Item, len(cfg.Catalog))
	for _, item := range cfg.Catalog {
		catalog[item.ID] = item
	}
	s := &Service{
		store:      store,
		dispatcher: dispatcher,
		handlers:   handlers,
		tokens:     tokens,
		catalog:    catalog,
		cfg:        cfg,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultCatalog is the demo catalog served when none is configured.
func DefaultCatalog() []models.Item {
	return []models.Item{
		{ID: "item_roses", Title: "Red Rose Bouquet", Price: 3500},
		{ID: "item_vase", Title: "Glass Vase", Price: 1800},
		{ID: "item_card", Title: "Greeting Card", Price: 450},
	}
}

func (s *Service) CreateCheckout(ctx context.Context, req models.CheckoutRequest) (any, error) {
	now := requestcontext.Now(ctx)
	c := &models.Checkout{
		ID:        "chk_" + uuid.NewString(),
		Currency:  s.cfg.Currency,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.cfg.CheckoutTTL),
		Links: []models.Link{
			{Rel: "terms_of_service", Href: s.cfg.BaseURL + "/legal/terms", Title: "Terms of Service"},
			{Rel: "privacy_policy", Href: s.cfg.BaseURL + "/legal/privacy", Title: "Privacy Policy"},
		},
	}
	if err := s.apply(c, req); err != nil {
		return nil, err
	}
	c.PaymentHandlers = s.paymentHandlers(ctx)

	if err := s.store.CreateCheckout(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save checkout")
	}
	s.logger.InfoContext(ctx, "checkout created",
		"checkout_id", c.ID,
		"status", c.Status,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{Action: audit.ActionCheckoutCreated, CheckoutID: c.ID, Status: string(c.Status)})
	return c, nil
}

func (s *Service) GetCheckout(ctx context.Context, id string) (any, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "checkout id is required")
	}
	c, err := s.store.FindCheckout(ctx, id)
	if err != nil {
		return nil, translate(err, "checkout")
	}
	return c, nil
}

func (s *Service) UpdateCheckout(ctx context.Context, req models.UpdateCheckoutRequest) (any, error) {
	if req.ID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "checkout id is required")
	}
	c, err := s.store.UpdateCheckout(ctx, req.ID, func(c *models.Checkout) error {
		if err := mutable(c); err != nil {
			return err
		}
		c.UpdatedAt = requestcontext.Now(ctx)
		return s.apply(c, req.CheckoutRequest)
	})
	if err != nil {
		return nil, translate(err, "checkout")
	}
	s.emit(ctx, audit.Event{Action: audit.ActionCheckoutUpdated, CheckoutID: c.ID, Status: string(c.Status)})
	return c, nil
}

func (s *Service) CancelCheckout(ctx context.Context, id string) (any, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "checkout id is required")
	}
	c, err := s.store.UpdateCheckout(ctx, id, func(c *models.Checkout) error {
		if err := mutable(c); err != nil {
			return err
		}
		c.Status = models.CheckoutCanceled
		c.UpdatedAt = requestcontext.Now(ctx)
		c.Messages = nil
		return nil
	})
	if err != nil {
		return nil, translate(err, "checkout")
	}
	s.logger.InfoContext(ctx, "checkout canceled", "checkout_id", id)
	s.emit(ctx, audit.Event{Action: audit.ActionCheckoutCanceled, CheckoutID: id, Status: string(c.Status)})
	return c, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (any, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "order id is required")
	}
	o, err := s.store.FindOrder(ctx, id)
	if err != nil {
		return nil, translate(err, "order")
	}
	return o, nil
}

// apply replaces the requested fields, prices the line items and derives the
// checkout status.
func (s *Service) apply(c *models.Checkout, req models.CheckoutRequest) error {
	if req.Currency != "" {
		if len(req.Currency) != 3 {
			return dErrors.New(dErrors.CodeValidation, "currency must be an ISO 4217 code")
		}
		c.Currency = strings.ToUpper(req.Currency)
	}
	if req.Buyer != nil {
		c.Buyer = req.Buyer
	}
	if req.LineItems != nil {
		items := make([]models.LineItem, 0, len(req.LineItems))
		for i, in := range req.LineItems {
			item, ok := s.catalog[in.Item.ID]
			if !ok {
				return dErrors.New(dErrors.CodeValidation, "unknown item "+in.Item.ID)
			}
			if in.Quantity <= 0 {
				return dErrors.New(dErrors.CodeValidation, "quantity must be positive for item "+in.Item.ID)
			}
			amount := item.Price * int64(in.Quantity)
			items = append(items, models.LineItem{
				ID:       lineItemID(i),
				Item:     item,
				Quantity: in.Quantity,
				Totals: []models.Total{
					{Type: models.TotalSubtotal, Amount: amount},
					{Type: models.TotalTotal, Amount: amount},
				},
			})
		}
		c.LineItems = items
	}

	var subtotal int64
	for _, li := range c.LineItems {
		subtotal += li.Item.Price * int64(li.Quantity)
	}
	c.Totals = []models.Total{
		{Type: models.TotalSubtotal, Amount: subtotal},
		{Type: models.TotalTotal, Amount: subtotal},
	}

	c.Messages = nil
	if len(c.LineItems) == 0 {
		c.Messages = append(c.Messages, models.ErrorMessage("missing", "$.line_items", "At least one line item is required.", models.SeverityRequiresBuyerInput))
	}
	switch {
	case c.Buyer == nil || c.Buyer.Email == "":
		c.Messages = append(c.Messages, models.ErrorMessage("missing", "$.buyer.email", "Buyer email is required.", models.SeverityRequiresBuyerInput))
	default:
		normalized, err := email.Normalize(c.Buyer.Email)
		if err != nil {
			c.Messages = append(c.Messages, models.ErrorMessage("invalid", "$.buyer.email", "Buyer email is not a valid address.", models.SeverityRequiresBuyerInput))
		} else {
			c.Buyer.Email = normalized
		}
	}
	if len(c.Messages) > 0 {
		c.Status = models.CheckoutIncomplete
	} else {
		c.Status = models.CheckoutReadyForComplete
	}
	return nil
}

// paymentHandlers returns the negotiated handlers when the request carried a
// platform profile, otherwise every accepted handler.
func (s *Service) paymentHandlers(ctx context.Context) []payment.Declaration {
	if result, ok := negotiation.FromContext(ctx); ok && result.Negotiated() {
		return result.PaymentHandlers
	}
	if s.handlers == nil {
		return nil
	}
	return s.handlers.Declarations()
}

// emit records event when an auditor is configured. Failures are logged and
// never fail the operation.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"checkout_id", event.CheckoutID,
			"error", err,
		)
	}
}

func mutable(c *models.Checkout) error {
	switch {
	case c.Status.Terminal():
		return dErrors.New(dErrors.CodeConflict, "checkout is already "+string(c.Status))
	case c.Status == models.CheckoutCompleteInProgress:
		return dErrors.New(dErrors.CodeConflict, "checkout completion is in progress")
	}
	return nil
}

func lineItemID(i int) string {
	return "li_" + strconv.Itoa(i+1)
}

// translate maps store sentinels to domain errors and passes domain errors through.
func translate(err error, resource string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, resource+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+resource)
}
