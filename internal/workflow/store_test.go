package workflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestblock/marketplace/marketplace-backend/internal/payments"
)

func pendingState() *CheckoutState {
	return &CheckoutState{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		ProjectKey:  "p1",
		ProjectName: "Mangrove Restoration",
		Vintage:     "2022",
		Quantity:    "2",
		UnitPrice:   "11.00",
		TotalCost:   "22.00",
		Method:      payments.MethodStablecoin,
		PaymentID:   "pay_1",
		Status:      payments.StatusPending,
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	state := pendingState()
	require.NoError(t, store.Put(ctx, state))

	got, err := store.Get(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, state.ProjectKey, got.ProjectKey)
	assert.Equal(t, state.TotalCost, got.TotalCost)
	assert.False(t, got.UpdatedAt.IsZero())

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, state.ID, pending[0].ID)

	require.NoError(t, store.Delete(ctx, state.ID))
	_, err = store.Get(ctx, state.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTerminalStateLeavesPendingList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	state := pendingState()
	require.NoError(t, store.Put(ctx, state))

	state.Status = payments.StatusConfirmed
	require.NoError(t, store.Put(ctx, state))

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// the state itself is still addressable until deleted
	got, err := store.Get(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, payments.StatusConfirmed, got.Status)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	state := pendingState()
	require.NoError(t, store.Put(ctx, state))

	got, err := store.Get(ctx, state.ID)
	require.NoError(t, err)
	got.Status = payments.StatusFailed

	again, err := store.Get(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, payments.StatusPending, again.Status)
}

func TestMemoryStoreGetUnknownID(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
