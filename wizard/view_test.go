package wizard

import (
	"testing"

	"warranty-registration/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func controls(v View) []Control {
	var out []Control
	for _, c := range v.Controls {
		out = append(out, c.Control)
	}
	return out
}

func TestRenderCollectingDetails(t *testing.T) {
	s := NewState(models.LanguageEnglish)
	s.Form.OrderID = "4"
	s.Errors = map[models.Field]models.ValidationError{models.FieldEmail: models.ErrEmailRequired}

	v := Render(s)

	assert.Equal(t, 1, v.Step)
	assert.Equal(t, "Register for Extended Warranty", v.Title)
	require.Len(t, v.Fields, 3)
	assert.Equal(t, models.FieldOrderID, v.Fields[0].Field)
	assert.Equal(t, "4", v.Fields[0].Value)
	assert.Empty(t, v.Fields[0].Error)
	assert.Equal(t, "Email is required", v.Fields[2].Error)
	assert.Equal(t, []Control{ControlSubmit, ControlClose}, controls(v))
}

func TestRenderPendingBranchesOnOrderExists(t *testing.T) {
	s := models.WizardState{
		Stage:       models.StagePendingVerification,
		Form:        models.RegistrationForm{OrderID: "4", Name: "A", Email: "a@b.com"},
		OrderExists: true,
		Language:    models.LanguageEnglish,
	}

	found := Render(s)
	assert.Equal(t, 2, found.Step)
	assert.Equal(t, "a@b.com", found.Email)
	assert.Contains(t, found.Lines[0], "sent a verification link")
	assert.Equal(t, []Control{ControlVerify, ControlClose}, controls(found))

	s.OrderExists = false
	manual := Render(s)
	assert.Contains(t, manual.Lines[0], "several days")
	assert.NotEqual(t, found.Lines, manual.Lines)
}

func TestRenderCompleted(t *testing.T) {
	v := Render(models.WizardState{Stage: models.StageCompleted, Language: models.LanguageEnglish})

	assert.Equal(t, 3, v.Step)
	assert.Equal(t, "Congratulations!", v.Title)
	assert.Equal(t, []Control{ControlClose}, controls(v))
}

func TestRenderChinese(t *testing.T) {
	s := NewState(models.LanguageChinese)
	s.Errors = map[models.Field]models.ValidationError{models.FieldOrderID: models.ErrOrderIDRequired}

	v := Render(s)

	assert.Equal(t, "注册延长保修", v.Title)
	assert.Equal(t, "订单号为必填项", v.Fields[0].Error)
	assert.Equal(t, "输入您的订单详情", v.Steps[0])
}

func TestRenderClosed(t *testing.T) {
	v := Render(models.WizardState{Closed: true})

	assert.True(t, v.Closed)
	assert.Empty(t, v.Controls)
	assert.Zero(t, v.Step)
}

func TestLocalizeFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, "Email is invalid", Localize(models.ErrEmailInvalid, "fr"))
	assert.Equal(t, "邮箱格式无效", Localize(models.ErrEmailInvalid, models.LanguageChinese))
}

func TestRenderStepsAreNotShared(t *testing.T) {
	s := NewState(models.LanguageEnglish)

	first := Render(s)
	require.NotEmpty(t, first.Steps)
	want := first.Steps[0]
	first.Steps[0] = "changed"

	assert.Equal(t, want, Render(s).Steps[0])
}
