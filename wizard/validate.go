package wizard

import (
	"regexp"
	"strings"

	"warranty-registration/models"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Validate checks every field of the form and returns all failures at once.
// An empty map means the form can be submitted.
func Validate(form models.RegistrationForm) map[models.Field]models.ValidationError {
	errs := make(map[models.Field]models.ValidationError)

	if strings.TrimSpace(form.OrderID) == "" {
		errs[models.FieldOrderID] = models.ErrOrderIDRequired
	}
	if strings.TrimSpace(form.Name) == "" {
		errs[models.FieldName] = models.ErrNameRequired
	}
	if strings.TrimSpace(form.Email) == "" {
		errs[models.FieldEmail] = models.ErrEmailRequired
	} else if !emailPattern.MatchString(form.Email) {
		errs[models.FieldEmail] = models.ErrEmailInvalid
	}

	return errs
}
