package payment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ucphost/internal/payment"
	"ucphost/internal/payment/mocks"
)

func TestRegistry(t *testing.T) {
	ctrl := gomock.NewController(t)

	t.Run("get misses on empty registry", func(t *testing.T) {
		r := payment.NewRegistry()
		_, ok := r.Get("nonexistent")
		assert.False(t, ok)
		assert.Empty(t, r.All())
	})

	t.Run("later registration wins", func(t *testing.T) {
		r := payment.NewRegistry()
		first := mocks.NewMockHandler(ctrl)
		second := mocks.NewMockHandler(ctrl)
		r.Register("com.example.pay", first)
		r.Register("com.example.pay", second)

		got, ok := r.Get("com.example.pay")
		require.True(t, ok)
		assert.Same(t, second, got)
	})

	t.Run("all returns a copy", func(t *testing.T) {
		r := payment.NewRegistry()
		r.Register("com.example.pay", mocks.NewMockHandler(ctrl))

		all := r.All()
		delete(all, "com.example.pay")
		all["injected"] = mocks.NewMockHandler(ctrl)

		_, ok := r.Get("com.example.pay")
		assert.True(t, ok)
		_, ok = r.Get("injected")
		assert.False(t, ok)
	})

	t.Run("declarations are sorted and named", func(t *testing.T) {
		r := payment.NewRegistry()
		b := mocks.NewMockHandler(ctrl)
		b.EXPECT().Declaration().Return(payment.Declaration{Name: "com.b.pay", Version: "2026-01-11"})
		a := mocks.NewMockHandler(ctrl)
		a.EXPECT().Declaration().Return(payment.Declaration{Version: "2026-01-11"})
		r.Register("com.b.pay", b)
		r.Register("com.a.pay", a)

		decls := r.Declarations()
		require.Len(t, decls, 2)
		assert.Equal(t, "com.a.pay", decls[0].Name)
		assert.Equal(t, "com.b.pay", decls[1].Name)
	})
}

func TestDeclarationSupportsSchema(t *testing.T) {
	decl := payment.Declaration{InstrumentSchemas: []string{"https://example.com/token.json"}}
	assert.True(t, decl.SupportsSchema("https://example.com/token.json"))
	assert.False(t, decl.SupportsSchema("https://example.com/card.json"))
	assert.False(t, decl.SupportsSchema(""))
}
