package api

import (
	"context"
	"errors"
	"fmt"

	"warranty-registration/activities"
	"warranty-registration/models"
	"warranty-registration/review"
	"warranty-registration/workflows"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
)

// Decider applies merchant review decisions
type Decider interface {
	Decide(ctx context.Context, decision models.ReviewDecision) (models.ReviewOutcome, error)
}

// TemporalDecider runs every decision as a ReviewDecisionWorkflow and waits for it
type TemporalDecider struct {
	client    client.Client
	taskQueue string
}

// NewTemporalDecider creates a Decider backed by c
func NewTemporalDecider(c client.Client, taskQueue string) *TemporalDecider {
	return &TemporalDecider{client: c, taskQueue: taskQueue}
}

// Decide implements Decider
func (d *TemporalDecider) Decide(ctx context.Context, decision models.ReviewDecision) (models.ReviewOutcome, error) {
	workflowOptions := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("review-decision-%s", uuid.NewString()),
		TaskQueue: d.taskQueue,
	}

	we, err := d.client.ExecuteWorkflow(ctx, workflowOptions, workflows.ReviewDecisionWorkflow, decision)
	if err != nil {
		return models.ReviewOutcome{}, fmt.Errorf("unable to start review decision: %w", err)
	}

	var outcome models.ReviewOutcome
	if err := we.Get(ctx, &outcome); err != nil {
		if appErr := findApplicationError(err, activities.ErrTypeRequestUnknown); appErr != nil {
			return models.ReviewOutcome{}, fmt.Errorf("%w: %s", review.ErrRequestNotFound, appErr.Error())
		}
		return models.ReviewOutcome{}, fmt.Errorf("review decision %s failed: %w", we.GetID(), err)
	}
	return outcome, nil
}

// findApplicationError returns the first application error in err's chain
// whose type is one of types, looking through wrapping application errors
func findApplicationError(err error, types ...string) *temporal.ApplicationError {
	for err != nil {
		var appErr *temporal.ApplicationError
		if !errors.As(err, &appErr) {
			return nil
		}
		for _, t := range types {
			if appErr.Type() == t {
				return appErr
			}
		}
		err = appErr.Unwrap()
	}
	return nil
}

// decisionStore reads from the request store and routes status changes
// through a Decider, so dashboard bulk actions notify customers
type decisionStore struct {
	review.Store
	decider   Decider
	decidedBy string
}

func (s decisionStore) UpdateStatus(ctx context.Context, ids []string, status models.RequestStatus) ([]models.WarrantyRequest, error) {
	outcome, err := s.decider.Decide(ctx, models.ReviewDecision{
		IDs:       ids,
		Status:    status,
		DecidedBy: s.decidedBy,
	})
	if err != nil {
		return nil, err
	}
	return outcome.Updated, nil
}
