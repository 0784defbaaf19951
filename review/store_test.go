package review

import (
	"context"
	"testing"

	"warranty-registration/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(sampleRequests())
	require.NoError(t, err)
	return store
}

func TestMemoryStoreListKeepsInsertionOrder(t *testing.T) {
	store := newTestStore(t)

	all, err := store.List(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"WR-001", "WR-002", "WR-003", "WR-004"}, IDs(all))

	approved, err := store.List(context.Background(), Query{Status: models.StatusFilter(models.RequestStatusApproved)})
	require.NoError(t, err)
	assert.Equal(t, []string{"WR-002", "WR-004"}, IDs(approved))

	searched, err := store.List(context.Background(), Query{Status: models.FilterAll, Search: "emily"})
	require.NoError(t, err)
	assert.Equal(t, []string{"WR-002"}, IDs(searched))
}

func TestMemoryStoreUpdateStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	updated, err := store.UpdateStatus(ctx, []string{"WR-003", "WR-001", "WR-003"}, models.RequestStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, []string{"WR-003", "WR-001"}, IDs(updated))

	for _, id := range []string{"WR-001", "WR-003"} {
		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusRejected, got.Status)
	}

	all, err := store.List(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"WR-001", "WR-002", "WR-003", "WR-004"}, IDs(all), "updates must not reorder")
}

func TestMemoryStoreUpdateIsAllOrNothing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpdateStatus(ctx, []string{"WR-003", "WR-999"}, models.RequestStatusApproved)
	require.ErrorIs(t, err, ErrRequestNotFound)

	got, err := store.Get(ctx, "WR-003")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, got.Status)
}

func TestMemoryStoreRejectsInvalidStatus(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpdateStatus(context.Background(), []string{"WR-001"}, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "WR-404")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestNewMemoryStoreRejectsDuplicates(t *testing.T) {
	requests := sampleRequests()
	requests = append(requests, requests[0])

	_, err := NewMemoryStore(requests)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestMemoryStoreCountByStatus(t *testing.T) {
	store := newTestStore(t)

	counts, err := store.CountByStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.RequestStatusApproved])
	assert.Equal(t, 1, counts[models.RequestStatusPending])
	assert.Equal(t, 1, counts[models.RequestStatusVerified])
	assert.Zero(t, counts[models.RequestStatusRejected])
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.List(ctx, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}
