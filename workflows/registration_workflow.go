package workflows

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"warranty-registration/activities"
	"warranty-registration/models"
	"warranty-registration/wizard"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	RegistrationWorkflowName = "RegistrationWorkflow"

	QueryState = "state"
	QueryView  = "view"

	UpdateEditField   = "edit-field"
	UpdateSetLanguage = "set-language"
	UpdateSubmit      = "submit"

	SignalVerificationConfirmed = "verification-confirmed"
	SignalClose                 = "close"
)

const (
	DefaultFormTimeout         = time.Hour
	DefaultVerificationTimeout = 72 * time.Hour
)

// Application error types of rejected or failed wizard updates
const (
	ErrTypeEventNotAllowed = "EventNotAllowedError"
	ErrTypeInvalidInput    = "InvalidInputError"
	ErrTypeLookupFailed    = "LookupFailedError"
)

// ErrSubmitInProgress rejects wizard changes while a submit is looking the order up
var ErrSubmitInProgress = errors.New("submit in progress")

// RegistrationWorkflow hosts one customer's registration wizard, from the
// first keystroke to the verified warranty
func RegistrationWorkflow(ctx workflow.Context, input models.RegistrationInput) (models.RegistrationResult, error) {
	logger := workflow.GetLogger(ctx)
	registrationID := workflow.GetInfo(ctx).WorkflowExecution.ID
	logger.Info("RegistrationWorkflow started", "registration_id", registrationID, "language", input.Language)

	if input.FormTimeout <= 0 {
		input.FormTimeout = DefaultFormTimeout
	}
	if input.VerificationTimeout <= 0 {
		input.VerificationTimeout = DefaultVerificationTimeout
	}

	state := wizard.NewState(input.Language)
	// pure events only; submit builds its own machine around the lookup activity
	machine := wizard.NewMachine(nil)

	closed := false
	confirmed := false
	submitting := false
	token := ""

	// Setup query handlers for workflow state
	err := workflow.SetQueryHandler(ctx, QueryState, func() (models.WizardState, error) {
		return state, nil
	})
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("failed to set query handler: %w", err)
	}
	err = workflow.SetQueryHandler(ctx, QueryView, func() (wizard.View, error) {
		return wizard.Render(state), nil
	})
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("failed to set query handler: %w", err)
	}

	// Version handling for backward compatibility
	v := workflow.GetVersion(ctx, "manual-review-notice", workflow.DefaultVersion, 1)

	// Activity options with retry policy
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		HeartbeatTimeout:    5 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        1 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{activities.ErrTypeOrderConflict},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var act *activities.RegistrationActivities

	notReady := func() error {
		if closed {
			return wizardError(fmt.Errorf("%w: wizard is closed", wizard.ErrEventNotAllowed))
		}
		if submitting {
			return wizardError(ErrSubmitInProgress)
		}
		return nil
	}

	err = workflow.SetUpdateHandlerWithOptions(ctx, UpdateEditField,
		func(ctx workflow.Context, edit models.FieldEdit) (models.WizardState, error) {
			next, err := machine.Apply(state, wizard.EditField{Field: edit.Field, Value: edit.Value})
			if err != nil {
				return state, wizardError(err)
			}
			state = next
			return state, nil
		},
		workflow.UpdateHandlerOptions{
			Validator: func(ctx workflow.Context, edit models.FieldEdit) error {
				if err := notReady(); err != nil {
					return err
				}
				if _, err := machine.Apply(state, wizard.EditField{Field: edit.Field, Value: edit.Value}); err != nil {
					return wizardError(err)
				}
				return nil
			},
		},
	)
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("failed to set update handler: %w", err)
	}

	err = workflow.SetUpdateHandlerWithOptions(ctx, UpdateSetLanguage,
		func(ctx workflow.Context, lang models.Language) (models.WizardState, error) {
			next, err := machine.Apply(state, wizard.SetLanguage{Language: lang})
			if err != nil {
				return state, wizardError(err)
			}
			state = next
			return state, nil
		},
		workflow.UpdateHandlerOptions{
			Validator: func(ctx workflow.Context, lang models.Language) error {
				if err := notReady(); err != nil {
					return err
				}
				if _, err := machine.Apply(state, wizard.SetLanguage{Language: lang}); err != nil {
					return wizardError(err)
				}
				return nil
			},
		},
	)
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("failed to set update handler: %w", err)
	}

	err = workflow.SetUpdateHandlerWithOptions(ctx, UpdateSubmit,
		func(ctx workflow.Context) (models.WizardState, error) {
			submitting = true
			defer func() { submitting = false }()

			lookupCtx := workflow.WithActivityOptions(ctx, activityOptions)
			next, err := wizard.NewMachine(activityLookup(lookupCtx, act)).Apply(state, wizard.Submit{})
			if err != nil {
				logger.Warn("Submit failed", "registration_id", registrationID, "error", err)
				return state, wizardError(err)
			}
			if closed {
				return state, wizardError(fmt.Errorf("%w: wizard closed during submit", wizard.ErrEventNotAllowed))
			}
			state = next
			if len(state.Errors) > 0 {
				logger.Info("Submit rejected by validation", "registration_id", registrationID, "errors", len(state.Errors))
			}
			return state, nil
		},
		workflow.UpdateHandlerOptions{
			Validator: func(ctx workflow.Context) error {
				if err := notReady(); err != nil {
					return err
				}
				if state.Stage != models.StageCollectingDetails {
					return wizardError(fmt.Errorf("%w: submit during %s", wizard.ErrEventNotAllowed, state.Stage))
				}
				return nil
			},
		},
	)
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("failed to set update handler: %w", err)
	}

	verifyChan := workflow.GetSignalChannel(ctx, SignalVerificationConfirmed)
	closeChan := workflow.GetSignalChannel(ctx, SignalClose)

	// Start async signal handler goroutine
	workflow.Go(ctx, func(gCtx workflow.Context) {
		selector := workflow.NewSelector(gCtx)

		selector.AddReceive(verifyChan, func(c workflow.ReceiveChannel, more bool) {
			var confirmation models.VerificationConfirmation
			c.Receive(gCtx, &confirmation)
			if token == "" || confirmation.Token != token {
				logger.Warn("Ignoring verification with unknown token", "registration_id", registrationID)
				return
			}
			confirmed = true
			logger.Info("Email verified via signal", "registration_id", registrationID)
		})

		selector.AddReceive(closeChan, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(gCtx, nil)
			state, _ = machine.Apply(state, wizard.Close{})
			closed = true
			logger.Info("Wizard closed via signal", "registration_id", registrationID)
		})

		for !closed {
			selector.Select(gCtx)
		}
	})

	finish := func(outcome models.RegistrationOutcome) (models.RegistrationResult, error) {
		// let in-flight updates reply before the run ends
		if err := workflow.Await(ctx, func() bool { return workflow.AllHandlersFinished(ctx) }); err != nil {
			return models.RegistrationResult{}, err
		}
		logger.Info("RegistrationWorkflow finished", "registration_id", registrationID, "outcome", outcome)
		return models.RegistrationResult{Outcome: outcome, State: state}, nil
	}

	// Step 1: Collect details
	ok, err := workflow.AwaitWithTimeout(ctx, input.FormTimeout, func() bool {
		return closed || state.Stage != models.StageCollectingDetails
	})
	if err != nil {
		return models.RegistrationResult{}, err
	}
	if closed {
		return finish(models.OutcomeClosed)
	}
	if !ok {
		logger.Info("Registration form abandoned", "registration_id", registrationID)
		return finish(models.OutcomeExpired)
	}

	// Step 2: Send the verification link
	encodedToken := workflow.SideEffect(ctx, func(ctx workflow.Context) interface{} {
		return uuid.NewString()
	})
	if err := encodedToken.Get(&token); err != nil {
		return models.RegistrationResult{}, fmt.Errorf("failed to generate verification token: %w", err)
	}

	email := models.VerificationEmail{
		RegistrationID: registrationID,
		OrderID:        state.Form.OrderID,
		Name:           state.Form.Name,
		Email:          state.Form.Email,
		Language:       state.Language,
		Link:           VerificationLink(input.VerifyBaseURL, registrationID, token),
	}

	if state.OrderExists || v == workflow.DefaultVersion {
		logger.Info("Sending verification email", "registration_id", registrationID)
		err = workflow.ExecuteActivity(ctx, act.SendVerificationEmail, email).Get(ctx, nil)
	} else {
		logger.Info("Order unknown, requesting manual review", "registration_id", registrationID, "order_id", email.OrderID)
		err = workflow.ExecuteActivity(ctx, act.RequestManualReview, email).Get(ctx, nil)
	}
	if err != nil {
		logger.Error("Failed to send verification mail", "registration_id", registrationID, "error", err)
		return models.RegistrationResult{}, fmt.Errorf("verification mail failed: %w", err)
	}

	// Step 3: Wait for the customer to follow the link
	ok, err = workflow.AwaitWithTimeout(ctx, input.VerificationTimeout, func() bool {
		return closed || confirmed
	})
	if err != nil {
		return models.RegistrationResult{}, err
	}
	if closed {
		return finish(models.OutcomeClosed)
	}
	if !ok {
		logger.Info("Verification link expired", "registration_id", registrationID)
		return finish(models.OutcomeExpired)
	}

	next, err := machine.Apply(state, wizard.ConfirmVerification{})
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("failed to confirm verification: %w", err)
	}
	state = next

	// Step 4: Notify customer
	err = workflow.ExecuteActivity(ctx, act.SendActivationNotice, email).Get(ctx, nil)
	if err != nil {
		logger.Warn("Failed to send activation notice", "registration_id", registrationID, "error", err)
		// Don't fail the workflow if notification fails
	}

	return finish(models.OutcomeCompleted)
}

// wizardError tags a wizard failure with an application error type clients can branch on
func wizardError(err error) error {
	errType := ErrTypeEventNotAllowed
	switch {
	case errors.Is(err, wizard.ErrUnknownField), errors.Is(err, wizard.ErrUnsupportedLanguage):
		errType = ErrTypeInvalidInput
	case errors.Is(err, wizard.ErrLookupFailed):
		errType = ErrTypeLookupFailed
	}
	return temporal.NewApplicationError(err.Error(), errType)
}

// VerificationLink is the URL emailed to the customer
func VerificationLink(baseURL, registrationID, token string) string {
	return fmt.Sprintf("%s/verify/%s/%s", strings.TrimSuffix(baseURL, "/"), registrationID, token)
}

// activityLookup resolves orders through the LookupOrder activity
func activityLookup(ctx workflow.Context, act *activities.RegistrationActivities) wizard.OrderLookup {
	return wizard.OrderLookupFunc(func(orderID string) (bool, error) {
		var exists bool
		err := workflow.ExecuteActivity(ctx, act.LookupOrder, orderID).Get(ctx, &exists)
		return exists, err
	})
}
