package wizard

import "warranty-registration/models"

// Control is a button offered to the customer
type Control string

const (
	ControlSubmit Control = "submit"
	ControlVerify Control = "verify"
	ControlClose  Control = "close"
)

// FieldView is one rendered form input
type FieldView struct {
	Field       models.Field `json:"field"`
	Label       string       `json:"label"`
	Placeholder string       `json:"placeholder"`
	Value       string       `json:"value"`
	Error       string       `json:"error,omitempty"`
}

// ControlView is one rendered button
type ControlView struct {
	Control Control `json:"control"`
	Label   string  `json:"label"`
}

// View is everything the customer sees for a wizard state
type View struct {
	Step     int           `json:"step"`
	Steps    []string      `json:"steps"`
	Title    string        `json:"title"`
	Lines    []string      `json:"lines"`
	Fields   []FieldView   `json:"fields,omitempty"`
	Email    string        `json:"email,omitempty"`
	Controls []ControlView `json:"controls"`
	Closed   bool          `json:"closed"`
}

type copyText struct {
	steps []string

	detailsTitle    string
	detailsSubtitle string
	labels          map[models.Field]string
	placeholders    map[models.Field]string
	submit          string

	submittedTitle   string
	verifySent       string
	manualReview     string
	emailSentTo      string
	checkSpam        string
	nextSteps        string
	nextVerify       string
	nextManualReview string
	simulateVerify   string

	completedTitle    string
	completedSubtitle string
	completedDetails  string
	thankYou          string
	closeWindow       string

	errors map[models.ValidationError]string
}

var catalog = map[models.Language]copyText{
	models.LanguageEnglish: {
		steps:           []string{"Enter your order details", "Verify your email", "Enjoy extended warranty"},
		detailsTitle:    "Register for Extended Warranty",
		detailsSubtitle: "Complete these 3 simple steps to activate your bonus 1-year warranty extension!",
		labels: map[models.Field]string{
			models.FieldOrderID: "Order ID",
			models.FieldName:    "Full Name",
			models.FieldEmail:   "Email Address",
		},
		placeholders: map[models.Field]string{
			models.FieldOrderID: "Enter your order ID",
			models.FieldName:    "Enter your name as on order",
			models.FieldEmail:   "Enter your email address",
		},
		submit:            "Register Now",
		submittedTitle:    "Registration Submitted!",
		verifySent:        "We've sent a verification link to your email. Please check your inbox and click the link to complete your warranty activation.",
		manualReview:      "Thank you for your submission. Since your order needs verification, please allow several days for processing. You'll receive a verification email once approved.",
		emailSentTo:       "Email sent to:",
		checkSpam:         "If you don't see it, please check your spam folder.",
		nextSteps:         "What's next?",
		nextVerify:        "Click the verification link in your email to instantly activate your extended warranty.",
		nextManualReview:  "Wait for our team to verify your order details. Once approved, you'll receive an email with a verification link.",
		simulateVerify:    "Simulate Email Verification",
		completedTitle:    "Congratulations!",
		completedSubtitle: "Your extended warranty has been successfully activated.",
		completedDetails:  "Your product is now covered with an additional 1-year warranty.",
		thankYou:          "Thank you for choosing our products!",
		closeWindow:       "Close Window",
		errors: map[models.ValidationError]string{
			models.ErrOrderIDRequired: string(models.ErrOrderIDRequired),
			models.ErrNameRequired:    string(models.ErrNameRequired),
			models.ErrEmailRequired:   string(models.ErrEmailRequired),
			models.ErrEmailInvalid:    string(models.ErrEmailInvalid),
		},
	},
	models.LanguageChinese: {
		steps:           []string{"输入您的订单详情", "验证您的邮箱", "享受延长保修"},
		detailsTitle:    "注册延长保修",
		detailsSubtitle: "完成这3个简单步骤，激活您的额外1年保修期！",
		labels: map[models.Field]string{
			models.FieldOrderID: "订单号",
			models.FieldName:    "姓名",
			models.FieldEmail:   "电子邮箱",
		},
		placeholders: map[models.Field]string{
			models.FieldOrderID: "输入您的订单号",
			models.FieldName:    "输入您订单上的姓名",
			models.FieldEmail:   "输入您的电子邮箱",
		},
		submit:            "立即注册",
		submittedTitle:    "注册已提交！",
		verifySent:        "我们已向您的邮箱发送了验证链接。请检查您的收件箱并点击链接完成保修激活。",
		manualReview:      "感谢您的提交。由于您的订单需要验证，请等待几天进行处理。一旦批准，您将收到验证邮件。",
		emailSentTo:       "邮件已发送至：",
		checkSpam:         "如果您没有看到，请检查您的垃圾邮件文件夹。",
		nextSteps:         "下一步是什么？",
		nextVerify:        "点击邮件中的验证链接，立即激活您的延长保修。",
		nextManualReview:  "等待我们的团队验证您的订单详情。一旦批准，您将收到一封带有验证链接的邮件。",
		simulateVerify:    "模拟邮箱验证",
		completedTitle:    "恭喜！",
		completedSubtitle: "您的延长保修已成功激活。",
		completedDetails:  "您的产品现在享有额外1年的保修期。",
		thankYou:          "感谢您选择我们的产品！",
		closeWindow:       "关闭窗口",
		errors: map[models.ValidationError]string{
			models.ErrOrderIDRequired: "订单号为必填项",
			models.ErrNameRequired:    "姓名为必填项",
			models.ErrEmailRequired:   "邮箱为必填项",
			models.ErrEmailInvalid:    "邮箱格式无效",
		},
	},
}

// Localize returns the message for a validation error in lang
func Localize(err models.ValidationError, lang models.Language) string {
	if msg, ok := textFor(lang).errors[err]; ok {
		return msg
	}
	return string(err)
}

func textFor(lang models.Language) copyText {
	if t, ok := catalog[lang]; ok {
		return t
	}
	return catalog[models.LanguageEnglish]
}

// Render produces the customer-facing view of s
func Render(s models.WizardState) View {
	if s.Closed {
		return View{Closed: true}
	}

	t := textFor(s.Language)
	v := View{
		Step:  s.Stage.Step(),
		Steps: append([]string(nil), t.steps...),
	}

	switch s.Stage {
	case models.StageCollectingDetails:
		v.Title = t.detailsTitle
		v.Lines = []string{t.detailsSubtitle}
		for _, f := range models.Fields {
			fv := FieldView{
				Field:       f,
				Label:       t.labels[f],
				Placeholder: t.placeholders[f],
				Value:       s.Form.Value(f),
			}
			if err, ok := s.Errors[f]; ok {
				fv.Error = Localize(err, s.Language)
			}
			v.Fields = append(v.Fields, fv)
		}
		v.Controls = []ControlView{
			{Control: ControlSubmit, Label: t.submit},
			{Control: ControlClose, Label: t.closeWindow},
		}

	case models.StagePendingVerification:
		v.Title = t.submittedTitle
		v.Email = s.Form.Email
		if s.OrderExists {
			v.Lines = []string{t.verifySent, t.emailSentTo, t.checkSpam, t.nextSteps, t.nextVerify}
		} else {
			v.Lines = []string{t.manualReview, t.emailSentTo, t.checkSpam, t.nextSteps, t.nextManualReview}
		}
		v.Controls = []ControlView{
			{Control: ControlVerify, Label: t.simulateVerify},
			{Control: ControlClose, Label: t.closeWindow},
		}

	case models.StageCompleted:
		v.Title = t.completedTitle
		v.Lines = []string{t.completedSubtitle, t.completedDetails, t.thankYou}
		v.Controls = []ControlView{
			{Control: ControlClose, Label: t.closeWindow},
		}
	}

	return v
}
