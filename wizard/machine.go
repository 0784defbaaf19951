// Package wizard implements the warranty registration wizard as a pure state
// machine. Machine.Apply computes the next state for an event and Render turns
// a state into what the customer sees. Neither performs I/O; the order lookup
// is injected.
package wizard

import (
	"errors"
	"fmt"

	"warranty-registration/models"
)

var (
	// ErrEventNotAllowed is returned for an event the current stage does not accept
	ErrEventNotAllowed = errors.New("event not allowed in current stage")
	// ErrLookupFailed wraps failures of the injected order lookup
	ErrLookupFailed = errors.New("order lookup failed")
	// ErrUnknownField is returned when an edit names a field the form does not have
	ErrUnknownField = errors.New("unknown form field")
	// ErrUnsupportedLanguage is returned for a language without translations
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Event is an input to the wizard
type Event interface {
	eventName() string
}

// EditField changes one form field while details are being collected
type EditField struct {
	Field models.Field
	Value string
}

// SetLanguage switches the wizard copy
type SetLanguage struct {
	Language models.Language
}

// Submit validates the form and, when it is valid, looks the order up
type Submit struct{}

// ConfirmVerification is the customer following the emailed verification link
type ConfirmVerification struct{}

// Close dismisses the wizard and discards everything entered
type Close struct{}

func (EditField) eventName() string { return "edit-field" }
func (SetLanguage) eventName() string { return "set-language" }
func (Submit) eventName() string { return "submit" }
func (ConfirmVerification) eventName() string { return "confirm-verification" }
func (Close) eventName() string { return "close" }

// NewState returns the state of a freshly opened wizard
func NewState(lang models.Language) models.WizardState {
	if !lang.Valid() {
		lang = models.LanguageEnglish
	}
	return models.WizardState{
		Stage:    models.StageCollectingDetails,
		Language: lang,
	}
}

// Machine applies wizard events
type Machine struct {
	lookup OrderLookup
}

// NewMachine creates a machine that resolves orders through lookup
func NewMachine(lookup OrderLookup) *Machine {
	return &Machine{lookup: lookup}
}

// Apply returns the state that follows s after ev. On error the returned state
// is s unchanged. The input state is never modified.
func (m *Machine) Apply(s models.WizardState, ev Event) (models.WizardState, error) {
	if s.Closed {
		return s, fmt.Errorf("%w: wizard is closed", ErrEventNotAllowed)
	}

	switch ev := ev.(type) {
	case Close:
		return models.WizardState{Closed: true}, nil

	case SetLanguage:
		if !ev.Language.Valid() {
			return s, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, ev.Language)
		}
		next := clone(s)
		next.Language = ev.Language
		return next, nil

	case EditField:
		if err := requireStage(s, ev, models.StageCollectingDetails); err != nil {
			return s, err
		}
		if !knownField(ev.Field) {
			return s, fmt.Errorf("%w: %q", ErrUnknownField, ev.Field)
		}
		next := clone(s)
		next.Form = next.Form.With(ev.Field, ev.Value)
		delete(next.Errors, ev.Field)
		if len(next.Errors) == 0 {
			next.Errors = nil
		}
		return next, nil

	case Submit:
		if err := requireStage(s, ev, models.StageCollectingDetails); err != nil {
			return s, err
		}
		return m.submit(s)

	case ConfirmVerification:
		if err := requireStage(s, ev, models.StagePendingVerification); err != nil {
			return s, err
		}
		next := clone(s)
		next.Stage = models.StageCompleted
		return next, nil
	}

	return s, fmt.Errorf("%w: unrecognised event %T", ErrEventNotAllowed, ev)
}

func (m *Machine) submit(s models.WizardState) (models.WizardState, error) {
	next := clone(s)

	if errs := Validate(s.Form); len(errs) > 0 {
		next.Errors = errs
		return next, nil
	}

	exists, err := m.lookup.OrderExists(s.Form.OrderID)
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	next.Errors = nil
	next.OrderExists = exists
	next.Stage = models.StagePendingVerification
	return next, nil
}

func requireStage(s models.WizardState, ev Event, stage models.WizardStage) error {
	if s.Stage != stage {
		return fmt.Errorf("%w: %s during %s", ErrEventNotAllowed, ev.eventName(), s.Stage)
	}
	return nil
}

func knownField(f models.Field) bool {
	for _, known := range models.Fields {
		if f == known {
			return true
		}
	}
	return false
}

func clone(s models.WizardState) models.WizardState {
	if s.Errors != nil {
		errs := make(map[models.Field]models.ValidationError, len(s.Errors))
		for k, v := range s.Errors {
			errs[k] = v
		}
		s.Errors = errs
	}
	return s
}
