// Package review holds the merchant side of warranty registration: the
// request store, list filtering and the bulk approve/reject session.
package review

import (
	"strings"

	"warranty-registration/models"
)

// FilterByStatus returns the requests whose status matches filter, keeping
// their order. FilterAll returns every request.
func FilterByStatus(requests []models.WarrantyRequest, filter models.StatusFilter) []models.WarrantyRequest {
	out := make([]models.WarrantyRequest, 0, len(requests))
	for _, r := range requests {
		if filter == models.FilterAll || string(r.Status) == string(filter) {
			out = append(out, r)
		}
	}
	return out
}

// Search keeps the requests where text appears, case-insensitively, in the ID,
// order ID, customer name, email or product name. Empty text matches everything.
func Search(requests []models.WarrantyRequest, text string) []models.WarrantyRequest {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return append([]models.WarrantyRequest(nil), requests...)
	}

	var out []models.WarrantyRequest
	for _, r := range requests {
		for _, hay := range []string{r.ID, r.OrderID, r.CustomerName, r.Email, r.ProductName} {
			if strings.Contains(strings.ToLower(hay), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// IDs returns the identifiers of requests in order
func IDs(requests []models.WarrantyRequest) []string {
	ids := make([]string, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
	}
	return ids
}

// SelectAll toggles the visible requests in the selection. When every visible
// id is already selected they are all deselected; otherwise the missing ones
// are added. Selected ids outside the visible set are kept either way.
func SelectAll(selection, visible []string) []string {
	if len(visible) == 0 {
		return append([]string(nil), selection...)
	}

	selected := toSet(selection)
	allSelected := true
	for _, id := range visible {
		if _, ok := selected[id]; !ok {
			allSelected = false
			break
		}
	}

	if allSelected {
		hide := toSet(visible)
		out := make([]string, 0, len(selection))
		for _, id := range selection {
			if _, ok := hide[id]; !ok {
				out = append(out, id)
			}
		}
		return out
	}

	out := append([]string(nil), selection...)
	for _, id := range visible {
		if _, ok := selected[id]; !ok {
			out = append(out, id)
			selected[id] = struct{}{}
		}
	}
	return out
}

// ToggleSelect adds id to the selection when absent and removes it when present
func ToggleSelect(selection []string, id string) []string {
	out := make([]string, 0, len(selection)+1)
	found := false
	for _, s := range selection {
		if s == id {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

// AllSelected reports whether every visible id is in the selection. An empty
// visible set is never fully selected.
func AllSelected(selection, visible []string) bool {
	if len(visible) == 0 {
		return false
	}
	selected := toSet(selection)
	for _, id := range visible {
		if _, ok := selected[id]; !ok {
			return false
		}
	}
	return true
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
