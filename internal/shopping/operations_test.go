package shopping

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ucphost/internal/capability"
	"ucphost/internal/shopping/mocks"
	"ucphost/internal/shopping/models"
	dErrors "ucphost/pkg/domain-errors"
)

func TestOperations(t *testing.T) {
	ops := Operations()
	names := make([]string, 0, len(ops))
	for _, op := range ops {
		names = append(names, op.Name)
		assert.NotEmpty(t, op.Description, op.Name)
		assert.NotEmpty(t, op.Capability, op.Name)
	}
	assert.Equal(t, []string{
		OpCreateCheckout, OpGetCheckout, OpUpdateCheckout, OpCompleteCheckout,
		OpCancelCheckout, OpLinkIdentity, OpGetOrder,
	}, names)

	ops[0].Name = "mutated"
	assert.Equal(t, OpCreateCheckout, Operations()[0].Name)
}

func TestLookupOperation(t *testing.T) {
	op, ok := LookupOperation(OpGetOrder)
	require.True(t, ok)
	assert.Equal(t, capability.Order, op.Capability)

	_, ok = LookupOperation("delete_everything")
	assert.False(t, ok)
}

func TestOperationCall(t *testing.T) {
	ctx := context.Background()

	t.Run("params decode into the request type", func(t *testing.T) {
		svc := mocks.NewMockService(gomock.NewController(t))
		svc.EXPECT().UpdateCheckout(ctx, models.UpdateCheckoutRequest{
			ID:              "chk_1",
			CheckoutRequest: models.CheckoutRequest{Currency: "EUR"},
		}).Return("ok", nil)

		op, _ := LookupOperation(OpUpdateCheckout)
		out, err := op.Call(ctx, svc, json.RawMessage(`{"id":"chk_1","currency":"EUR"}`))
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
	})

	t.Run("id operations read the id field", func(t *testing.T) {
		svc := mocks.NewMockService(gomock.NewController(t))
		svc.EXPECT().CancelCheckout(ctx, "chk_9").Return(nil, nil)

		op, _ := LookupOperation(OpCancelCheckout)
		_, err := op.Call(ctx, svc, json.RawMessage(`{"id":"chk_9"}`))
		require.NoError(t, err)
	})

	t.Run("absent params are the zero request", func(t *testing.T) {
		svc := mocks.NewMockService(gomock.NewController(t))
		svc.EXPECT().CreateCheckout(ctx, models.CheckoutRequest{}).Return(nil, nil).Times(2)

		op, _ := LookupOperation(OpCreateCheckout)
		_, err := op.Call(ctx, svc, nil)
		require.NoError(t, err)
		_, err = op.Call(ctx, svc, json.RawMessage(" null "))
		require.NoError(t, err)
	})

	t.Run("malformed params never reach the service", func(t *testing.T) {
		svc := mocks.NewMockService(gomock.NewController(t))

		op, _ := LookupOperation(OpLinkIdentity)
		_, err := op.Call(ctx, svc, json.RawMessage(`["not","an","object"]`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
