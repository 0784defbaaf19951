package review

import (
	"context"
	"fmt"
	"sync"

	"warranty-registration/models"
)

// DashboardView is a snapshot of one merchant's review session
type DashboardView struct {
	Filter      models.StatusFilter      `json:"filter"`
	Search      string                   `json:"search"`
	Requests    []models.WarrantyRequest `json:"requests"`
	Selected    []string                 `json:"selected"`
	AllSelected bool                     `json:"allSelected"`
}

// Dashboard is one merchant's review session: the current filter, search text
// and selection over a Store.
type Dashboard struct {
	mu        sync.Mutex
	store     Store
	filter    models.StatusFilter
	search    string
	selection []string
}

// NewDashboard opens a session showing every request
func NewDashboard(store Store) *Dashboard {
	return &Dashboard{
		store:  store,
		filter: models.FilterAll,
	}
}

// SetFilter changes the status filter. Selections hidden by the new filter are kept.
func (d *Dashboard) SetFilter(filter models.StatusFilter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filter = filter
}

// SetSearch changes the search text. Selections hidden by it are kept.
func (d *Dashboard) SetSearch(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.search = text
}

// Visible returns the requests shown under the current filter and search
func (d *Dashboard) Visible(ctx context.Context) ([]models.WarrantyRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visible(ctx)
}

func (d *Dashboard) visible(ctx context.Context) ([]models.WarrantyRequest, error) {
	return d.store.List(ctx, Query{Status: d.filter, Search: d.search})
}

// Selected returns a copy of the selected ids
func (d *Dashboard) Selected() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.selection...)
}

// ToggleSelect flips the selection of one request
func (d *Dashboard) ToggleSelect(id string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection = ToggleSelect(d.selection, id)
	return append([]string(nil), d.selection...)
}

// SelectAll toggles every visible request
func (d *Dashboard) SelectAll(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	visible, err := d.visible(ctx)
	if err != nil {
		return nil, err
	}
	d.selection = SelectAll(d.selection, IDs(visible))
	return append([]string(nil), d.selection...), nil
}

// BulkApprove approves every selected request and clears the selection
func (d *Dashboard) BulkApprove(ctx context.Context) (int, error) {
	return d.bulk(ctx, models.RequestStatusApproved)
}

// BulkReject rejects every selected request and clears the selection
func (d *Dashboard) BulkReject(ctx context.Context) (int, error) {
	return d.bulk(ctx, models.RequestStatusRejected)
}

// bulk is a no-op on an empty selection. A failed update keeps the selection.
func (d *Dashboard) bulk(ctx context.Context, status models.RequestStatus) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.selection) == 0 {
		return 0, nil
	}

	updated, err := d.store.UpdateStatus(ctx, d.selection, status)
	if err != nil {
		return 0, fmt.Errorf("failed to mark %d requests %s: %w", len(d.selection), status, err)
	}
	d.selection = nil
	return len(updated), nil
}

// View returns a snapshot of the session
func (d *Dashboard) View(ctx context.Context) (DashboardView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	visible, err := d.visible(ctx)
	if err != nil {
		return DashboardView{}, err
	}
	return DashboardView{
		Filter:      d.filter,
		Search:      d.search,
		Requests:    visible,
		Selected:    append([]string{}, d.selection...),
		AllSelected: AllSelected(d.selection, IDs(visible)),
	}, nil
}
