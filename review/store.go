package review

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"warranty-registration/models"

	"github.com/hashicorp/go-memdb"
)

var (
	// ErrRequestNotFound is returned when an id does not name a stored request
	ErrRequestNotFound = errors.New("warranty request not found")
	// ErrInvalidStatus is returned for a status outside the known set
	ErrInvalidStatus = errors.New("invalid request status")
	// ErrDuplicateRequest is returned when seeding two requests with the same id
	ErrDuplicateRequest = errors.New("duplicate warranty request")
)

// Query narrows a request listing
type Query struct {
	Status models.StatusFilter
	Search string
}

// Store is the merchant's warranty request data store
type Store interface {
	// List returns the matching requests in submission order
	List(ctx context.Context, q Query) ([]models.WarrantyRequest, error)
	// Get returns one request
	Get(ctx context.Context, id string) (models.WarrantyRequest, error)
	// UpdateStatus sets status on every id and returns the updated requests.
	// Either every id is updated or none is.
	UpdateStatus(ctx context.Context, ids []string, status models.RequestStatus) ([]models.WarrantyRequest, error)
}

const requestTable = "request"

type record struct {
	Seq uint64
	models.WarrantyRequest
}

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		requestTable: {
			Name: requestTable,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"seq": {
					Name:    "seq",
					Unique:  true,
					Indexer: &memdb.UintFieldIndex{Field: "Seq"},
				},
				"status": {
					Name:    "status",
					Indexer: &memdb.StringFieldIndex{Field: "Status"},
				},
			},
		},
	},
}

// MemoryStore keeps warranty requests in an in-memory database. Nothing is
// persisted across restarts.
type MemoryStore struct {
	db  *memdb.MemDB
	seq atomic.Uint64
}

// NewMemoryStore creates a store seeded with requests in the given order
func NewMemoryStore(requests []models.WarrantyRequest) (*MemoryStore, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to create request database: %w", err)
	}
	s := &MemoryStore{db: db}

	txn := db.Txn(true)
	defer txn.Abort()
	for _, r := range requests {
		if !r.Status.Valid() {
			return nil, fmt.Errorf("%w: %q on %s", ErrInvalidStatus, r.Status, r.ID)
		}
		existing, err := txn.First(requestTable, "id", r.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check request %s: %w", r.ID, err)
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRequest, r.ID)
		}
		if err := txn.Insert(requestTable, &record{Seq: s.seq.Add(1), WarrantyRequest: r}); err != nil {
			return nil, fmt.Errorf("failed to insert request %s: %w", r.ID, err)
		}
	}
	txn.Commit()

	return s, nil
}

// List implements Store
func (s *MemoryStore) List(ctx context.Context, q Query) ([]models.WarrantyRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(requestTable, "seq")
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	var all []models.WarrantyRequest
	for obj := it.Next(); obj != nil; obj = it.Next() {
		all = append(all, obj.(*record).WarrantyRequest)
	}

	filter := q.Status
	if filter == "" {
		filter = models.FilterAll
	}
	return Search(FilterByStatus(all, filter), q.Search), nil
}

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, id string) (models.WarrantyRequest, error) {
	if err := ctx.Err(); err != nil {
		return models.WarrantyRequest{}, err
	}

	txn := s.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First(requestTable, "id", id)
	if err != nil {
		return models.WarrantyRequest{}, fmt.Errorf("failed to read request %s: %w", id, err)
	}
	if obj == nil {
		return models.WarrantyRequest{}, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
	}
	return obj.(*record).WarrantyRequest, nil
}

// UpdateStatus implements Store
func (s *MemoryStore) UpdateStatus(ctx context.Context, ids []string, status models.RequestStatus) ([]models.WarrantyRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	seen := make(map[string]struct{}, len(ids))
	updated := make([]models.WarrantyRequest, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		obj, err := txn.First(requestTable, "id", id)
		if err != nil {
			return nil, fmt.Errorf("failed to read request %s: %w", id, err)
		}
		if obj == nil {
			return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, id)
		}

		// stored objects are immutable; insert a modified copy
		next := *obj.(*record)
		next.Status = status
		if err := txn.Insert(requestTable, &next); err != nil {
			return nil, fmt.Errorf("failed to update request %s: %w", id, err)
		}
		updated = append(updated, next.WarrantyRequest)
	}
	txn.Commit()

	return updated, nil
}

// CountByStatus returns how many requests hold each status
func (s *MemoryStore) CountByStatus() (map[models.RequestStatus]int, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	counts := make(map[models.RequestStatus]int)
	for _, status := range []models.RequestStatus{
		models.RequestStatusPending,
		models.RequestStatusVerified,
		models.RequestStatusApproved,
		models.RequestStatusRejected,
	} {
		it, err := txn.Get(requestTable, "status", string(status))
		if err != nil {
			return nil, fmt.Errorf("failed to count %s requests: %w", status, err)
		}
		for obj := it.Next(); obj != nil; obj = it.Next() {
			counts[status]++
		}
	}
	return counts, nil
}
