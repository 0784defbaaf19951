package review

import (
	"context"
	"errors"
	"testing"

	"warranty-registration/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	Store
}

func (failingStore) UpdateStatus(context.Context, []string, models.RequestStatus) ([]models.WarrantyRequest, error) {
	return nil, errors.New("store offline")
}

func TestDashboardBulkApprove(t *testing.T) {
	store := newTestStore(t)
	d := NewDashboard(store)
	ctx := context.Background()

	d.ToggleSelect("WR-001")
	d.ToggleSelect("WR-003")

	n, err := d.BulkApprove(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, d.Selected())

	for _, id := range []string{"WR-001", "WR-003"} {
		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusApproved, got.Status)
	}
}

func TestDashboardBulkRejectEmptySelectionIsNoop(t *testing.T) {
	store := newTestStore(t)
	d := NewDashboard(store)
	ctx := context.Background()

	before, err := store.List(ctx, Query{})
	require.NoError(t, err)

	n, err := d.BulkReject(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	after, err := store.List(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDashboardSelectAllFollowsFilter(t *testing.T) {
	d := NewDashboard(newTestStore(t))
	ctx := context.Background()

	d.ToggleSelect("WR-001")
	d.SetFilter(models.StatusFilter(models.RequestStatusApproved))

	sel, err := d.SelectAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"WR-001", "WR-002", "WR-004"}, sel)

	view, err := d.View(ctx)
	require.NoError(t, err)
	assert.True(t, view.AllSelected)
	assert.Equal(t, []string{"WR-002", "WR-004"}, IDs(view.Requests))

	sel, err = d.SelectAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"WR-001"}, sel)
}

func TestDashboardSearchNarrowsVisible(t *testing.T) {
	d := NewDashboard(newTestStore(t))
	d.SetSearch("sarah")

	visible, err := d.Visible(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"WR-004"}, IDs(visible))
}

func TestDashboardFailedUpdateKeepsSelection(t *testing.T) {
	d := NewDashboard(failingStore{Store: newTestStore(t)})
	d.ToggleSelect("WR-002")

	_, err := d.BulkApprove(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"WR-002"}, d.Selected())
}
