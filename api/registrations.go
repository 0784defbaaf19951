package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warranty-registration/models"
	"warranty-registration/workflows"

	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
)

var (
	// ErrRegistrationNotFound is returned for an unknown or finished registration
	ErrRegistrationNotFound = errors.New("registration not found")
	// ErrNotAllowed is returned when the wizard is not at a step that accepts the request
	ErrNotAllowed = errors.New("not allowed at the current step")
	// ErrInvalidInput is returned for a field or language the wizard does not know
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream is returned when a collaborator such as the order service fails
	ErrUpstream = errors.New("upstream service failed")
)

// Registrations drives registration wizards
type Registrations interface {
	Start(ctx context.Context, lang models.Language) (string, error)
	State(ctx context.Context, id string) (models.WizardState, error)
	EditField(ctx context.Context, id string, edit models.FieldEdit) (models.WizardState, error)
	SetLanguage(ctx context.Context, id string, lang models.Language) (models.WizardState, error)
	Submit(ctx context.Context, id string) (models.WizardState, error)
	Close(ctx context.Context, id string) error
	ConfirmVerification(ctx context.Context, id, token string) error
}

// RegistrationSettings are the workflow inputs fixed by configuration
type RegistrationSettings struct {
	TaskQueue           string
	VerifyBaseURL       string
	FormTimeout         time.Duration
	VerificationTimeout time.Duration
}

// TemporalRegistrations runs each wizard as a RegistrationWorkflow
type TemporalRegistrations struct {
	client   client.Client
	settings RegistrationSettings
}

// NewTemporalRegistrations creates a Registrations backed by c
func NewTemporalRegistrations(c client.Client, settings RegistrationSettings) *TemporalRegistrations {
	return &TemporalRegistrations{client: c, settings: settings}
}

// Start implements Registrations
func (t *TemporalRegistrations) Start(ctx context.Context, lang models.Language) (string, error) {
	workflowOptions := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("warranty-registration-%s", uuid.NewString()),
		TaskQueue: t.settings.TaskQueue,
		// the run outlives both waits by a margin for the final notice
		WorkflowExecutionTimeout: t.settings.FormTimeout + t.settings.VerificationTimeout + time.Hour,
	}

	we, err := t.client.ExecuteWorkflow(ctx, workflowOptions, workflows.RegistrationWorkflow, models.RegistrationInput{
		Language:            lang,
		VerifyBaseURL:       t.settings.VerifyBaseURL,
		FormTimeout:         t.settings.FormTimeout,
		VerificationTimeout: t.settings.VerificationTimeout,
	})
	if err != nil {
		return "", fmt.Errorf("unable to start registration: %w", err)
	}
	return we.GetID(), nil
}

// State implements Registrations
func (t *TemporalRegistrations) State(ctx context.Context, id string) (models.WizardState, error) {
	resp, err := t.client.QueryWorkflow(ctx, id, "", workflows.QueryState)
	if err != nil {
		return models.WizardState{}, translate(err)
	}

	var state models.WizardState
	if err := resp.Get(&state); err != nil {
		return models.WizardState{}, fmt.Errorf("failed to decode query result: %w", err)
	}
	return state, nil
}

// EditField implements Registrations
func (t *TemporalRegistrations) EditField(ctx context.Context, id string, edit models.FieldEdit) (models.WizardState, error) {
	return t.update(ctx, id, workflows.UpdateEditField, edit)
}

// SetLanguage implements Registrations
func (t *TemporalRegistrations) SetLanguage(ctx context.Context, id string, lang models.Language) (models.WizardState, error) {
	return t.update(ctx, id, workflows.UpdateSetLanguage, lang)
}

// Submit implements Registrations
func (t *TemporalRegistrations) Submit(ctx context.Context, id string) (models.WizardState, error) {
	return t.update(ctx, id, workflows.UpdateSubmit)
}

// Close implements Registrations
func (t *TemporalRegistrations) Close(ctx context.Context, id string) error {
	if err := t.client.SignalWorkflow(ctx, id, "", workflows.SignalClose, nil); err != nil {
		return translate(err)
	}
	return nil
}

// ConfirmVerification implements Registrations. The workflow checks the token.
func (t *TemporalRegistrations) ConfirmVerification(ctx context.Context, id, token string) error {
	err := t.client.SignalWorkflow(ctx, id, "", workflows.SignalVerificationConfirmed, models.VerificationConfirmation{Token: token})
	if err != nil {
		return translate(err)
	}
	return nil
}

func (t *TemporalRegistrations) update(ctx context.Context, id, name string, args ...interface{}) (models.WizardState, error) {
	handle, err := t.client.UpdateWorkflow(ctx, client.UpdateWorkflowOptions{
		WorkflowID:   id,
		UpdateName:   name,
		Args:         args,
		WaitForStage: client.WorkflowUpdateStageCompleted,
	})
	if err != nil {
		return models.WizardState{}, translate(err)
	}

	var state models.WizardState
	if err := handle.Get(ctx, &state); err != nil {
		return models.WizardState{}, translate(err)
	}
	return state, nil
}

// translate maps Temporal client errors onto the package errors
func translate(err error) error {
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", ErrRegistrationNotFound, notFound.Error())
	}

	appErr := findApplicationError(err,
		workflows.ErrTypeEventNotAllowed, workflows.ErrTypeInvalidInput, workflows.ErrTypeLookupFailed)
	if appErr != nil {
		switch appErr.Type() {
		case workflows.ErrTypeEventNotAllowed:
			return fmt.Errorf("%w: %s", ErrNotAllowed, appErr.Error())
		case workflows.ErrTypeInvalidInput:
			return fmt.Errorf("%w: %s", ErrInvalidInput, appErr.Error())
		case workflows.ErrTypeLookupFailed:
			return fmt.Errorf("%w: %s", ErrUpstream, appErr.Error())
		}
	}
	return err
}
