package models

import "time"

// RequestStatus represents the review status of a warranty request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusVerified RequestStatus = "verified"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is one of the known statuses
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusVerified, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// StatusFilter selects requests by status; FilterAll matches every request
type StatusFilter string

const FilterAll StatusFilter = "all"

// ParseStatusFilter accepts "all", an empty string (treated as all) or a request status
func ParseStatusFilter(s string) (StatusFilter, bool) {
	if s == "" || s == string(FilterAll) {
		return FilterAll, true
	}
	if !RequestStatus(s).Valid() {
		return "", false
	}
	return StatusFilter(s), true
}

// WarrantyRequest is a registration request awaiting merchant review
type WarrantyRequest struct {
	ID           string        `json:"id" yaml:"id"`
	OrderID      string        `json:"orderId" yaml:"order_id"`
	CustomerName string        `json:"customerName" yaml:"customer_name"`
	Email        string        `json:"email" yaml:"email"`
	ProductName  string        `json:"productName" yaml:"product_name"`
	SubmittedAt  time.Time     `json:"submittedAt" yaml:"submitted_at"`
	Status       RequestStatus `json:"status" yaml:"status"`
}

// ReviewDecision is the input to the review decision workflow
type ReviewDecision struct {
	IDs       []string      `json:"ids"`
	Status    RequestStatus `json:"status"`
	DecidedBy string        `json:"decidedBy"`
}

// ReviewOutcome summarises an applied review decision
type ReviewOutcome struct {
	Updated  []WarrantyRequest `json:"updated"`
	Notified int               `json:"notified"`
}
