package models

import "time"

// Language selects the copy shown to the customer
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageChinese Language = "zh"
)

// Valid reports whether the language has translations
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageChinese
}

// Field identifies one input of the registration form
type Field string

const (
	FieldOrderID Field = "orderId"
	FieldName    Field = "name"
	FieldEmail   Field = "email"
)

// Fields lists the form inputs in display order
var Fields = []Field{FieldOrderID, FieldName, FieldEmail}

// RegistrationForm holds the details a customer types into the wizard
type RegistrationForm struct {
	OrderID string `json:"orderId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// Value returns the current value of a form field
func (f RegistrationForm) Value(field Field) string {
	switch field {
	case FieldOrderID:
		return f.OrderID
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	}
	return ""
}

// With returns a copy of the form with one field replaced
func (f RegistrationForm) With(field Field, value string) RegistrationForm {
	switch field {
	case FieldOrderID:
		f.OrderID = value
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	}
	return f
}

// ValidationError is the canonical (English) message of a field validation failure
type ValidationError string

const (
	ErrOrderIDRequired ValidationError = "Order ID is required"
	ErrNameRequired    ValidationError = "Name is required"
	ErrEmailRequired   ValidationError = "Email is required"
	ErrEmailInvalid    ValidationError = "Email is invalid"
)

func (e ValidationError) Error() string {
	return string(e)
}

// WizardStage is the position of a registration in the wizard
type WizardStage string

const (
	StageCollectingDetails   WizardStage = "COLLECTING_DETAILS"
	StagePendingVerification WizardStage = "PENDING_VERIFICATION"
	StageCompleted           WizardStage = "COMPLETED"
)

// Step returns the 1-based step number shown in the progress indicator
func (s WizardStage) Step() int {
	switch s {
	case StagePendingVerification:
		return 2
	case StageCompleted:
		return 3
	}
	return 1
}

// WizardState is the full state of one registration wizard
type WizardState struct {
	Stage       WizardStage               `json:"stage"`
	Form        RegistrationForm          `json:"form"`
	Errors      map[Field]ValidationError `json:"errors,omitempty"`
	OrderExists bool                      `json:"orderExists"`
	Language    Language                  `json:"language"`
	Closed      bool                      `json:"closed"`
}

// RegistrationOutcome is how a registration workflow ended
type RegistrationOutcome string

const (
	OutcomeCompleted RegistrationOutcome = "COMPLETED"
	OutcomeClosed    RegistrationOutcome = "CLOSED"
	OutcomeExpired   RegistrationOutcome = "EXPIRED"
)

// RegistrationInput starts a registration workflow
type RegistrationInput struct {
	Language            Language      `json:"language"`
	VerifyBaseURL       string        `json:"verifyBaseUrl"`
	FormTimeout         time.Duration `json:"formTimeout"`
	VerificationTimeout time.Duration `json:"verificationTimeout"`
}

// RegistrationResult is returned when a registration workflow finishes
type RegistrationResult struct {
	Outcome RegistrationOutcome `json:"outcome"`
	State   WizardState         `json:"state"`
}

// FieldEdit is the payload of the edit-field update
type FieldEdit struct {
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// VerificationConfirmation is the payload of the verification-confirmed signal
type VerificationConfirmation struct {
	Token string `json:"token"`
}

// VerificationEmail is the input to the verification and manual review activities
type VerificationEmail struct {
	RegistrationID string   `json:"registrationId"`
	OrderID        string   `json:"orderId"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Language       Language `json:"language"`
	Link           string   `json:"link"`
}

// Branding customises the registration popup for one merchant
type Branding struct {
	LogoURL         string   `json:"logoUrl" yaml:"logo_url"`
	PrimaryColor    string   `json:"primaryColor" yaml:"primary_color"`
	DefaultLanguage Language `json:"defaultLanguage" yaml:"default_language"`
}
