package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/cart"
)

func TestWatch_SubscribeDeliversCurrentSnapshot(t *testing.T) {
	userID, _ := uuid.FromString("123e4567-e89b-12d3-a456-426614174000")
	productID, _ := uuid.FromString("9f2c7d1e-0b3a-4c5d-8e6f-112233445511")

	loader := func(ctx context.Context, u uuid.UUID) ([]cart.LineWithProduct, error) {
		return []cart.LineWithProduct{{ProductID: productID, Name: "Mug", Price: 10, Stock: 5, Quantity: 1}}, nil
	}
	w := cart.NewWatch(loader, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, err := w.Subscribe(ctx, userID)
	require.NoError(t, err)

	select {
	case snapshot := <-snapshots:
		require.Len(t, snapshot, 1)
		assert.Equal(t, productID, snapshot[0].ProductID)
	case <-time.After(time.Second):
		t.Fatal("expected the current snapshot immediately on subscribe")
	}
}

func TestWatch_SlowConsumerOnlySeesLatest(t *testing.T) {
	userID, _ := uuid.FromString("123e4567-e89b-12d3-a456-426614174000")

	quantity := 0
	loader := func(ctx context.Context, u uuid.UUID) ([]cart.LineWithProduct, error) {
		if quantity == 0 {
			return []cart.LineWithProduct{}, nil
		}
		return []cart.LineWithProduct{{Name: "Mug", Quantity: quantity}}, nil
	}
	w := cart.NewWatch(loader, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, err := w.Subscribe(ctx, userID)
	require.NoError(t, err)

	// Not reading yet: three changes arrive while the consumer is busy.
	quantity = 1
	w.Notify(ctx, userID)
	quantity = 2
	w.Notify(ctx, userID)
	quantity = 3
	w.Notify(ctx, userID)

	snapshot := <-snapshots
	require.Len(t, snapshot, 1)
	assert.Equal(t, 3, snapshot[0].Quantity, "pending snapshots are replaced, not queued")
}

func TestWatch_NotifyOnlyReachesThatIdentity(t *testing.T) {
	alice, _ := uuid.FromString("123e4567-e89b-12d3-a456-426614174000")
	bob, _ := uuid.FromString("223e4567-e89b-12d3-a456-426614174000")

	loads := map[uuid.UUID]int{}
	loader := func(ctx context.Context, u uuid.UUID) ([]cart.LineWithProduct, error) {
		loads[u]++
		return []cart.LineWithProduct{}, nil
	}
	w := cart.NewWatch(loader, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	aliceSnaps, err := w.Subscribe(ctx, alice)
	require.NoError(t, err)
	bobSnaps, err := w.Subscribe(ctx, bob)
	require.NoError(t, err)

	<-aliceSnaps
	<-bobSnaps

	w.Notify(ctx, alice)

	select {
	case <-aliceSnaps:
	case <-time.After(time.Second):
		t.Fatal("alice expected a snapshot after her cart changed")
	}

	select {
	case <-bobSnaps:
		t.Fatal("bob must not see alice's cart changes")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatch_CancelClosesChannel(t *testing.T) {
	userID, _ := uuid.FromString("123e4567-e89b-12d3-a456-426614174000")

	loader := func(ctx context.Context, u uuid.UUID) ([]cart.LineWithProduct, error) {
		return []cart.LineWithProduct{}, nil
	}
	w := cart.NewWatch(loader, nil)

	ctx, cancel := context.WithCancel(context.Background())
	snapshots, err := w.Subscribe(ctx, userID)
	require.NoError(t, err)

	<-snapshots
	cancel()

	select {
	case _, ok := <-snapshots:
		assert.False(t, ok, "channel must be closed after context cancellation")
	case <-time.After(time.Second):
		t.Fatal("expected the snapshot channel to close")
	}
}

func TestWatch_LoaderFailureFailsSubscribe(t *testing.T) {
	userID, _ := uuid.FromString("123e4567-e89b-12d3-a456-426614174000")

	loader := func(ctx context.Context, u uuid.UUID) ([]cart.LineWithProduct, error) {
		return nil, context.DeadlineExceeded
	}
	w := cart.NewWatch(loader, nil)

	_, err := w.Subscribe(context.Background(), userID)
	assert.Error(t, err)
}
