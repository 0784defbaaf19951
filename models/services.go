package models

// OrderLookupRequest is sent to the merchant order service
type OrderLookupRequest struct {
	OrderID string `json:"order_id"`
}

// OrderLookupResponse is the merchant order service reply
type OrderLookupResponse struct {
	Exists  bool   `json:"exists"`
	Message string `json:"message,omitempty"`
}

// MailTemplate names a message the mail service knows how to render
type MailTemplate string

const (
	MailVerification    MailTemplate = "warranty-verification"
	MailManualReview    MailTemplate = "warranty-manual-review"
	MailActivated       MailTemplate = "warranty-activated"
	MailRequestApproved MailTemplate = "warranty-request-approved"
	MailRequestRejected MailTemplate = "warranty-request-rejected"
	MailRequestUpdated  MailTemplate = "warranty-request-updated"
)

// MailMessage is sent to the mail service
type MailMessage struct {
	To       string            `json:"to"`
	Template MailTemplate      `json:"template"`
	Language Language          `json:"language"`
	Data     map[string]string `json:"data"`
}
