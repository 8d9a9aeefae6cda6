package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomflow/order-system/orders-service/saga"
	"github.com/ecomflow/order-system/shared/models"
)

func newTestState(t *testing.T) *saga.State {
	t.Helper()
	return saga.NewState(models.GenerateUUID(), models.GenerateUUID(), models.NewMoney(2500, "USD"))
}

func TestMemorySagaStore_CreateAndFind(t *testing.T) {
	store := NewMemorySagaStore()
	ctx := context.Background()
	state := newTestState(t)

	require.NoError(t, store.Create(ctx, state))

	found, err := store.Find(ctx, state.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, state.CorrelationID, found.CorrelationID)
	assert.Equal(t, saga.StepReservingInventory, found.Step)
	assert.Equal(t, 1, found.Version)

	// The returned state is a copy, not an alias of the stored one
	found.Step = saga.StepFailed
	again, err := store.Find(ctx, state.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, saga.StepReservingInventory, again.Step)
}

func TestMemorySagaStore_CreateDuplicate(t *testing.T) {
	store := NewMemorySagaStore()
	ctx := context.Background()
	state := newTestState(t)

	require.NoError(t, store.Create(ctx, state))

	err := store.Create(ctx, state)
	assert.ErrorIs(t, err, saga.ErrStateExists)
}

func TestMemorySagaStore_FindUnknown(t *testing.T) {
	store := NewMemorySagaStore()

	_, err := store.Find(context.Background(), models.GenerateUUID())
	assert.ErrorIs(t, err, saga.ErrStateNotFound)
}

func TestMemorySagaStore_UpdateBumpsVersion(t *testing.T) {
	store := NewMemorySagaStore()
	ctx := context.Background()
	state := newTestState(t)
	require.NoError(t, store.Create(ctx, state))

	state.Advance(saga.StepProcessingPayment)
	require.NoError(t, store.Update(ctx, state))
	assert.Equal(t, 2, state.Version)

	found, err := store.Find(ctx, state.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, saga.StepProcessingPayment, found.Step)
	assert.Equal(t, 2, found.Version)
}

func TestMemorySagaStore_UpdateStaleVersion(t *testing.T) {
	store := NewMemorySagaStore()
	ctx := context.Background()
	state := newTestState(t)
	require.NoError(t, store.Create(ctx, state))

	stale, err := store.Find(ctx, state.CorrelationID)
	require.NoError(t, err)

	state.Advance(saga.StepProcessingPayment)
	require.NoError(t, store.Update(ctx, state))

	// The copy read before the update carries the old version
	stale.Advance(saga.StepCreatingShipment)
	err = store.Update(ctx, stale)
	assert.ErrorIs(t, err, saga.ErrStateConflict)

	found, err := store.Find(ctx, state.CorrelationID)
	require.NoError(t, err)
	assert.Equal(t, saga.StepProcessingPayment, found.Step)
}

func TestMemorySagaStore_UpdateUnknown(t *testing.T) {
	store := NewMemorySagaStore()

	err := store.Update(context.Background(), newTestState(t))
	assert.ErrorIs(t, err, saga.ErrStateNotFound)
}

func TestMemorySagaStore_FindStale(t *testing.T) {
	store := NewMemorySagaStore()
	ctx := context.Background()

	stuck := newTestState(t)
	require.NoError(t, store.Create(ctx, stuck))
	stuck.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Update(ctx, stuck))

	fresh := newTestState(t)
	require.NoError(t, store.Create(ctx, fresh))

	done := newTestState(t)
	require.NoError(t, store.Create(ctx, done))
	done.Advance(saga.StepCompleted)
	done.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Update(ctx, done))

	stale, err := store.FindStale(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, stuck.CorrelationID, stale[0].CorrelationID)
}
