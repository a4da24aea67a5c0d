package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ucphost/internal/capability"
	"ucphost/internal/envelope"
	"ucphost/internal/shopping/mocks"
	"ucphost/internal/shopping/models"
	dErrors "ucphost/pkg/domain-errors"
	"ucphost/pkg/requestcontext"
)

//go:generate mockgen -source=../shopping.go -destination=../mocks/mocks.go -package=mocks Service
type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, envelope.NewBridge(nil, nil), nil).Register(s.router)
}

func (s *HandlerSuite) do(method, path, body string, headers ...string) (*httptest.ResponseRecorder, envelope.Envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	var env envelope.Envelope
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr, env
}

func (s *HandlerSuite) requireCapability(env envelope.Envelope, name string) {
	meta, ok := env.Metadata()
	s.Require().True(ok, "response carries the ucp block")
	s.Require().Len(meta.Capabilities, 1)
	s.Equal(name, meta.Capabilities[0].Name)
}

func checkout(id string, status models.CheckoutStatus) *models.Checkout {
	return &models.Checkout{ID: id, Status: status, Currency: "USD"}
}

func (s *HandlerSuite) TestCreateCheckout() {
	want := models.CheckoutRequest{
		LineItems: []models.LineItemInput{{Item: models.ItemRef{ID: "item_roses"}, Quantity: 1}},
	}
	s.service.EXPECT().CreateCheckout(gomock.Any(), want).
		DoAndReturn(func(ctx context.Context, _ models.CheckoutRequest) (any, error) {
			s.Equal("rest", requestcontext.Transport(ctx))
			return checkout("chk_1", models.CheckoutIncomplete), nil
		})

	rr, env := s.do(http.MethodPost, "/ucp/v1/checkout-sessions", `{"line_items":[{"item":{"id":"item_roses"},"quantity":1}]}`)

	s.Equal(http.StatusCreated, rr.Code)
	s.requireCapability(env, capability.Checkout)
	s.Equal("chk_1", env["id"])
	s.Equal("incomplete", env["status"])
}

func (s *HandlerSuite) TestInvalidBody() {
	rr, env := s.do(http.MethodPost, "/ucp/v1/checkout-sessions", `{"line_items":`)

	s.Equal(http.StatusBadRequest, rr.Code)
	s.requireCapability(env, capability.Checkout)
	s.Equal("invalid JSON body", env["error"])
}

func (s *HandlerSuite) TestGetCheckout() {
	s.Run("found", func() {
		s.service.EXPECT().GetCheckout(gomock.Any(), "chk_1").Return(checkout("chk_1", models.CheckoutReadyForComplete), nil)

		rr, env := s.do(http.MethodGet, "/ucp/v1/checkout-sessions/chk_1", "")

		s.Equal(http.StatusOK, rr.Code)
		s.Equal("ready_for_complete", env["status"])
	})

	s.Run("not found keeps the envelope", func() {
		s.service.EXPECT().GetCheckout(gomock.Any(), "chk_missing").Return(nil, dErrors.New(dErrors.CodeNotFound, "checkout not found"))

		rr, env := s.do(http.MethodGet, "/ucp/v1/checkout-sessions/chk_missing", "")

		s.Equal(http.StatusNotFound, rr.Code)
		s.requireCapability(env, capability.Checkout)
		s.Equal("checkout not found", env["error"])
	})

	s.Run("internal errors are sanitized", func() {
		s.service.EXPECT().GetCheckout(gomock.Any(), "chk_boom").Return(nil, errors.New("connection reset by peer"))

		rr, env := s.do(http.MethodGet, "/ucp/v1/checkout-sessions/chk_boom", "")

		s.Equal(http.StatusInternalServerError, rr.Code)
		s.Equal(envelope.GenericErrorMessage, env["error"])
	})
}

func (s *HandlerSuite) TestUpdateCheckout() {
	want := models.UpdateCheckoutRequest{
		ID:              "chk_1",
		CheckoutRequest: models.CheckoutRequest{Buyer: &models.Buyer{Email: "buyer@example.com"}},
	}
	s.service.EXPECT().UpdateCheckout(gomock.Any(), want).Return(checkout("chk_1", models.CheckoutReadyForComplete), nil)

	rr, env := s.do(http.MethodPut, "/ucp/v1/checkout-sessions/chk_1", `{"buyer":{"email":"buyer@example.com"}}`)

	s.Equal(http.StatusOK, rr.Code)
	s.Equal("ready_for_complete", env["status"])
}

func (s *HandlerSuite) TestCompleteCheckout() {
	s.service.EXPECT().CompleteCheckout(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.CompleteCheckoutRequest) (any, error) {
			s.Equal("chk_1", req.ID)
			s.Equal("com.example.tokenizer", req.Payment.HandlerID)
			s.Equal("idem-1", req.IdempotencyKey)
			done := checkout("chk_1", models.CheckoutCompleted)
			done.Order = &models.OrderRef{ID: "ord_1", PermalinkURL: "https://shop.example.com/orders/ord_1"}
			return done, nil
		})

	rr, env := s.do(http.MethodPost, "/ucp/v1/checkout-sessions/chk_1/complete",
		`{"payment":{"handler_id":"com.example.tokenizer","credential":{"type":"token","data":{"token":"tok_visa"},"schema":"s"}}}`,
		IdempotencyKeyHeader, "idem-1")

	s.Equal(http.StatusOK, rr.Code)
	s.Equal("completed", env["status"])
	order, ok := env["order"].(map[string]any)
	s.Require().True(ok)
	s.Equal("ord_1", order["id"])
}

func (s *HandlerSuite) TestCancelCheckoutConflict() {
	s.service.EXPECT().CancelCheckout(gomock.Any(), "chk_1").Return(nil, dErrors.New(dErrors.CodeConflict, "checkout is already completed"))

	rr, env := s.do(http.MethodPost, "/ucp/v1/checkout-sessions/chk_1/cancel", "")

	s.Equal(http.StatusConflict, rr.Code)
	s.Equal("checkout is already completed", env["error"])
}

func (s *HandlerSuite) TestGetOrder() {
	s.service.EXPECT().GetOrder(gomock.Any(), "ord_1").Return(&models.Order{ID: "ord_1", Status: models.OrderConfirmed}, nil)

	rr, env := s.do(http.MethodGet, "/ucp/v1/orders/ord_1", "")

	s.Equal(http.StatusOK, rr.Code)
	s.requireCapability(env, capability.Order)
	s.Equal("confirmed", env["status"])
}

func (s *HandlerSuite) TestLinkIdentity() {
	want := models.LinkIdentityRequest{GrantType: models.GrantAuthorizationCode, Code: "code-1"}
	s.service.EXPECT().LinkIdentity(gomock.Any(), want).Return(&models.LinkedIdentity{
		AccessToken: "at", TokenType: "Bearer", ExpiresIn: 3600, AccountID: "acct_1",
	}, nil)

	rr, env := s.do(http.MethodPost, "/ucp/v1/identity-linking", `{"grant_type":"authorization_code","code":"code-1"}`)

	s.Equal(http.StatusOK, rr.Code)
	s.requireCapability(env, capability.IdentityLinking)
	s.Equal("at", env["access_token"])
	s.Equal(float64(3600), env["expires_in"])
}

func (s *HandlerSuite) TestMiddlewareRunsInsideTheGroup() {
	var seen string
	r := chi.NewRouter()
	New(s.service, envelope.NewBridge(nil, nil), nil, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = requestcontext.Transport(r.Context())
			next.ServeHTTP(w, r)
		})
	}).Register(r)
	s.service.EXPECT().GetOrder(gomock.Any(), "ord_1").Return(&models.Order{ID: "ord_1"}, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ucp/v1/orders/ord_1", bytes.NewReader(nil)))

	s.Equal(http.StatusOK, rr.Code)
	s.Equal("rest", seen)
}
