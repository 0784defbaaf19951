package wizard

import (
	"errors"
	"testing"

	"warranty-registration/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(t *testing.T, m *Machine, s models.WizardState, orderID, name, email string) models.WizardState {
	t.Helper()
	var err error
	for _, edit := range []EditField{
		{Field: models.FieldOrderID, Value: orderID},
		{Field: models.FieldName, Value: name},
		{Field: models.FieldEmail, Value: email},
	} {
		s, err = m.Apply(s, edit)
		require.NoError(t, err)
	}
	return s
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		form models.RegistrationForm
		want map[models.Field]models.ValidationError
	}{
		{
			name: "Valid - All Fields",
			form: models.RegistrationForm{OrderID: "4", Name: "A", Email: "a@b.com"},
			want: map[models.Field]models.ValidationError{},
		},
		{
			name: "Invalid - Empty Form",
			form: models.RegistrationForm{},
			want: map[models.Field]models.ValidationError{
				models.FieldOrderID: models.ErrOrderIDRequired,
				models.FieldName:    models.ErrNameRequired,
				models.FieldEmail:   models.ErrEmailRequired,
			},
		},
		{
			name: "Invalid - Whitespace Only",
			form: models.RegistrationForm{OrderID: "  ", Name: "\t", Email: " "},
			want: map[models.Field]models.ValidationError{
				models.FieldOrderID: models.ErrOrderIDRequired,
				models.FieldName:    models.ErrNameRequired,
				models.FieldEmail:   models.ErrEmailRequired,
			},
		},
		{
			name: "Invalid - Email Without Domain Dot",
			form: models.RegistrationForm{OrderID: "7", Name: "B", Email: "a@b"},
			want: map[models.Field]models.ValidationError{
				models.FieldEmail: models.ErrEmailInvalid,
			},
		},
		{
			name: "Invalid - Email Without At",
			form: models.RegistrationForm{OrderID: "7", Name: "B", Email: "ab.com"},
			want: map[models.Field]models.ValidationError{
				models.FieldEmail: models.ErrEmailInvalid,
			},
		},
		{
			name: "Invalid - Name Missing Only",
			form: models.RegistrationForm{OrderID: "12", Email: "x@y.org"},
			want: map[models.Field]models.ValidationError{
				models.FieldName: models.ErrNameRequired,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.form))
		})
	}
}

func TestIsEvenOrderID(t *testing.T) {
	tests := []struct {
		orderID string
		want    bool
	}{
		{"4", true},
		{"7", false},
		{"", false},
		{"0", true},
		{" 10 ", true},
		{"-8", true},
		{"+3", false},
		{"ORD-12346", false},
		{"12a", false},
		{"98765432109876543210", true},
		{"-", false},
	}

	for _, tt := range tests {
		t.Run(tt.orderID, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEvenOrderID(tt.orderID))

			exists, err := ParityLookup{}.OrderExists(tt.orderID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, exists)
		})
	}
}

func TestSubmitValidForm(t *testing.T) {
	m := NewMachine(ParityLookup{})
	s := fill(t, m, NewState(models.LanguageEnglish), "4", "A", "a@b.com")

	s, err := m.Apply(s, Submit{})
	require.NoError(t, err)

	assert.Equal(t, models.StagePendingVerification, s.Stage)
	assert.Empty(t, s.Errors)
	assert.True(t, s.OrderExists)
}

func TestSubmitUnknownOrderStillAdvances(t *testing.T) {
	m := NewMachine(ParityLookup{})
	s := fill(t, m, NewState(models.LanguageEnglish), "7", "B", "b@c.io")

	s, err := m.Apply(s, Submit{})
	require.NoError(t, err)

	assert.Equal(t, models.StagePendingVerification, s.Stage)
	assert.False(t, s.OrderExists)
}

func TestSubmitInvalidFormStays(t *testing.T) {
	lookedUp := false
	m := NewMachine(OrderLookupFunc(func(string) (bool, error) {
		lookedUp = true
		return true, nil
	}))
	s := fill(t, m, NewState(models.LanguageEnglish), "", "A", "not-an-email")

	s, err := m.Apply(s, Submit{})
	require.NoError(t, err)

	assert.Equal(t, models.StageCollectingDetails, s.Stage)
	assert.Len(t, s.Errors, 2)
	assert.Equal(t, models.ErrOrderIDRequired, s.Errors[models.FieldOrderID])
	assert.Equal(t, models.ErrEmailInvalid, s.Errors[models.FieldEmail])
	assert.False(t, lookedUp, "lookup must not run for an invalid form")
}

func TestEditClearsOnlyThatFieldError(t *testing.T) {
	m := NewMachine(ParityLookup{})
	s, err := m.Apply(NewState(models.LanguageEnglish), Submit{})
	require.NoError(t, err)
	require.Len(t, s.Errors, 3)

	before := s
	s, err = m.Apply(s, EditField{Field: models.FieldName, Value: "A"})
	require.NoError(t, err)

	assert.NotContains(t, s.Errors, models.FieldName)
	assert.Equal(t, models.ErrOrderIDRequired, s.Errors[models.FieldOrderID])
	assert.Equal(t, models.ErrEmailRequired, s.Errors[models.FieldEmail])
	assert.Len(t, before.Errors, 3, "previous state must not be mutated")
}

func TestLookupFailureKeepsState(t *testing.T) {
	boom := errors.New("order service unavailable")
	m := NewMachine(OrderLookupFunc(func(string) (bool, error) { return false, boom }))
	s := fill(t, m, NewState(models.LanguageEnglish), "4", "A", "a@b.com")

	next, err := m.Apply(s, Submit{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, s, next)
}

func TestEventsNotAllowed(t *testing.T) {
	m := NewMachine(ParityLookup{})
	collecting := NewState(models.LanguageEnglish)
	pending := fill(t, m, collecting, "4", "A", "a@b.com")
	pending, err := m.Apply(pending, Submit{})
	require.NoError(t, err)
	completed, err := m.Apply(pending, ConfirmVerification{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		state models.WizardState
		event Event
	}{
		{"Verify While Collecting", collecting, ConfirmVerification{}},
		{"Edit While Pending", pending, EditField{Field: models.FieldName, Value: "Z"}},
		{"Submit While Pending", pending, Submit{}},
		{"Submit When Completed", completed, Submit{}},
		{"Verify When Completed", completed, ConfirmVerification{}},
		{"Anything After Close", models.WizardState{Closed: true}, SetLanguage{Language: models.LanguageChinese}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := m.Apply(tt.state, tt.event)
			assert.ErrorIs(t, err, ErrEventNotAllowed)
			assert.Equal(t, tt.state, next)
		})
	}
}

func TestUnknownFieldAndLanguage(t *testing.T) {
	m := NewMachine(ParityLookup{})
	s := NewState(models.LanguageEnglish)

	_, err := m.Apply(s, EditField{Field: "phone", Value: "1"})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = m.Apply(s, SetLanguage{Language: "fr"})
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestCloseDiscardsAtEveryStage(t *testing.T) {
	m := NewMachine(ParityLookup{})
	s := fill(t, m, NewState(models.LanguageChinese), "4", "A", "a@b.com")

	closed, err := m.Apply(s, Close{})
	require.NoError(t, err)
	assert.Equal(t, models.WizardState{Closed: true}, closed)

	s, err = m.Apply(s, Submit{})
	require.NoError(t, err)
	closed, err = m.Apply(s, Close{})
	require.NoError(t, err)
	assert.Equal(t, models.WizardState{Closed: true}, closed)
}

func TestEndToEnd(t *testing.T) {
	m := NewMachine(ParityLookup{})
	s := fill(t, m, NewState(models.LanguageEnglish), "4", "A", "a@b.com")

	s, err := m.Apply(s, Submit{})
	require.NoError(t, err)
	require.Equal(t, models.StagePendingVerification, s.Stage)
	require.True(t, s.OrderExists)

	s, err = m.Apply(s, ConfirmVerification{})
	require.NoError(t, err)
	assert.Equal(t, models.StageCompleted, s.Stage)
	assert.Equal(t, "a@b.com", s.Form.Email)
}

func TestNewStateDefaultsLanguage(t *testing.T) {
	assert.Equal(t, models.LanguageEnglish, NewState("").Language)
	assert.Equal(t, models.LanguageChinese, NewState(models.LanguageChinese).Language)
	assert.Equal(t, models.StageCollectingDetails, NewState("").Stage)
}
