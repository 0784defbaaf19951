package workflows

import (
	"errors"
	"fmt"
	"time"

	"warranty-registration/activities"
	"warranty-registration/models"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	ReviewDecisionWorkflowName = "ReviewDecisionWorkflow"
)

// ReviewDecisionWorkflow applies a merchant's bulk approve or reject and lets
// each affected customer know
func ReviewDecisionWorkflow(ctx workflow.Context, decision models.ReviewDecision) (models.ReviewOutcome, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("ReviewDecisionWorkflow started", "count", len(decision.IDs), "status", decision.Status, "decided_by", decision.DecidedBy)

	// Activity options for review activities
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 20 * time.Second,
		HeartbeatTimeout:    5 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        1 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{activities.ErrTypeRequestUnknown},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var reviewAct *activities.ReviewActivities

	// Step 1: Update the store
	var updated []models.WarrantyRequest
	err := workflow.ExecuteActivity(ctx, reviewAct.UpdateRequestStatus, decision).Get(ctx, &updated)
	if err != nil {
		logger.Error("Request status update failed", "status", decision.Status, "error", err)
		var appErr *temporal.ApplicationError
		if errors.As(err, &appErr) && appErr.Type() == activities.ErrTypeRequestUnknown {
			// keep the type on the outermost error so callers can map it
			return models.ReviewOutcome{}, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("status update failed: unknown request in %v", decision.IDs),
				activities.ErrTypeRequestUnknown, err)
		}
		return models.ReviewOutcome{}, fmt.Errorf("status update failed: %w", err)
	}

	logger.Info("Request status updated", "count", len(updated), "status", decision.Status)

	// Step 2: Notify customers in parallel
	futures := make([]workflow.Future, len(updated))
	for i, req := range updated {
		futures[i] = workflow.ExecuteActivity(ctx, reviewAct.NotifyDecision, req)
	}

	outcome := models.ReviewOutcome{Updated: updated}
	for i, f := range futures {
		if err := f.Get(ctx, nil); err != nil {
			logger.Warn("Failed to notify customer", "request_id", updated[i].ID, "error", err)
			// Don't fail the decision if notification fails
			continue
		}
		outcome.Notified++
	}

	logger.Info("ReviewDecisionWorkflow completed", "updated", len(outcome.Updated), "notified", outcome.Notified)
	return outcome, nil
}
