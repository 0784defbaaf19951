package activities

import (
	"errors"
	"fmt"
)

// Error types named here are never retried by the workflows
const (
	ErrTypeOrderConflict  = "OrderConflictError"
	ErrTypeRequestUnknown = "RequestUnknownError"
)

// ErrServiceUnavailable marks a downstream service failure worth retrying
var ErrServiceUnavailable = errors.New("service unavailable")

// OrderConflictError is reported when the merchant order service cannot give a
// definite answer for an order, for example when it matches several orders
type OrderConflictError struct {
	OrderID string
	Detail  string
}

func (e *OrderConflictError) Error() string {
	return fmt.Sprintf("order %s conflicts: %s", e.OrderID, e.Detail)
}
