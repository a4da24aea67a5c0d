package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ucphost/internal/audit"
	"ucphost/internal/audit/store/memory"
	"ucphost/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{CheckoutID: "chk_1", Action: audit.ActionCheckoutCreated})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "chk_1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionCheckoutCreated, events[0].Action)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{CheckoutID: "chk_1", Action: audit.ActionCheckoutUpdated}))
	}

	pub.Close()

	events, err := store.ListByCheckout(context.Background(), "chk_1")
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_EmitAfterCloseIsInline(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	pub.Close()
	pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{CheckoutID: "chk_1", Action: audit.ActionCheckoutCanceled}))

	events, err := store.ListByCheckout(context.Background(), "chk_1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPublisher_BufferFullDoesNotBlock(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{CheckoutID: "chk_1", Action: audit.ActionPaymentAttempted})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
	pub.Close()

	events, err := store.ListByCheckout(context.Background(), "chk_1")
	require.NoError(t, err)
	assert.NotEmpty(t, events)
	assert.LessOrEqual(t, len(events), 20)
}

func TestPublisher_StampsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	ctx := requestcontext.WithRequestID(context.Background(), "req-1")
	ctx = requestcontext.WithClientIP(ctx, "192.0.2.1")

	before := time.Now()
	require.NoError(t, pub.Emit(ctx, audit.Event{CheckoutID: "chk_1", Action: audit.ActionCheckoutCreated}))
	after := time.Now()

	events, err := pub.List(context.Background(), "chk_1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, "192.0.2.1", events[0].ClientIP)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.False(t, events[0].Timestamp.After(after))
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	custom := time.Date(2026, 1, 11, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{CheckoutID: "chk_1", Timestamp: custom}))

	events, err := pub.List(context.Background(), "chk_1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, custom, events[0].Timestamp)
}
