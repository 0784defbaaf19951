package activities

import (
	"context"
	"errors"
	"net/http"
	"time"

	"warranty-registration/models"
	"warranty-registration/review"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// ReviewActivities applies merchant review decisions
type ReviewActivities struct {
	store          review.Store
	httpClient     *http.Client
	mailServiceURL string
}

// NewReviewActivities creates a new ReviewActivities instance
func NewReviewActivities(store review.Store, mailServiceURL string) *ReviewActivities {
	return &ReviewActivities{
		store: store,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		mailServiceURL: mailServiceURL,
	}
}

// UpdateRequestStatus writes the decided status on every request in the decision
func (r *ReviewActivities) UpdateRequestStatus(ctx context.Context, decision models.ReviewDecision) ([]models.WarrantyRequest, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Updating request status", "count", len(decision.IDs), "status", decision.Status, "decided_by", decision.DecidedBy)

	updated, err := r.store.UpdateStatus(ctx, decision.IDs, decision.Status)
	if err != nil {
		if errors.Is(err, review.ErrRequestNotFound) || errors.Is(err, review.ErrInvalidStatus) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeRequestUnknown, err)
		}
		return nil, err
	}

	logger.Info("Request status updated", "count", len(updated), "status", decision.Status)
	return updated, nil
}

// NotifyDecision tells the customer what the merchant decided
func (r *ReviewActivities) NotifyDecision(ctx context.Context, req models.WarrantyRequest) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Notifying customer of decision", "request_id", req.ID, "status", req.Status)

	template := models.MailRequestUpdated
	switch req.Status {
	case models.RequestStatusApproved:
		template = models.MailRequestApproved
	case models.RequestStatusRejected:
		template = models.MailRequestRejected
	}

	msg := models.MailMessage{
		To:       req.Email,
		Template: template,
		Language: models.LanguageEnglish,
		Data: map[string]string{
			"request_id": req.ID,
			"order_id":   req.OrderID,
			"name":       req.CustomerName,
			"product":    req.ProductName,
			"status":     string(req.Status),
		},
	}
	if err := deliver(ctx, r.httpClient, r.mailServiceURL, msg); err != nil {
		return err
	}

	logger.Info("Customer notified of decision", "request_id", req.ID)
	return nil
}
