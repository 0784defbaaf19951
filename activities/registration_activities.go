package activities

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"warranty-registration/models"
	"warranty-registration/wizard"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// RegistrationActivities contains the collaborators of the registration wizard
type RegistrationActivities struct {
	httpClient      *http.Client
	orderServiceURL string
	mailServiceURL  string
}

// NewRegistrationActivities creates a new RegistrationActivities instance.
// An empty orderServiceURL falls back to the parity demo lookup; an empty
// mailServiceURL only logs outgoing mail.
func NewRegistrationActivities(orderServiceURL, mailServiceURL string) *RegistrationActivities {
	return &RegistrationActivities{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		orderServiceURL: orderServiceURL,
		mailServiceURL:  mailServiceURL,
	}
}

// LookupOrder asks the merchant order service whether an order exists
func (a *RegistrationActivities) LookupOrder(ctx context.Context, orderID string) (bool, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Looking up order", "order_id", orderID)

	if a.orderServiceURL == "" {
		exists, err := wizard.ParityLookup{}.OrderExists(orderID)
		logger.Info("Order looked up with demo rule", "order_id", orderID, "exists", exists)
		return exists, err
	}

	// Heartbeat to let Temporal know we're still alive
	activity.RecordHeartbeat(ctx, "calling order service")

	url := fmt.Sprintf("%s/orders/lookup", a.orderServiceURL)
	resp, err := postJSON(ctx, a.httpClient, url, models.OrderLookupRequest{OrderID: orderID})
	if err != nil {
		return false, fmt.Errorf("failed to call order service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		logger.Info("Order not known to merchant", "order_id", orderID)
		return false, nil
	case http.StatusConflict:
		body, _ := io.ReadAll(resp.Body)
		conflict := &OrderConflictError{OrderID: orderID, Detail: string(body)}
		return false, temporal.NewNonRetryableApplicationError(conflict.Error(), ErrTypeOrderConflict, conflict)
	default:
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("order service returned status %d: %s: %w", resp.StatusCode, string(body), ErrServiceUnavailable)
	}

	var lookup models.OrderLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return false, fmt.Errorf("failed to decode order lookup response: %w", err)
	}

	activity.RecordHeartbeat(ctx, "order lookup response received")

	logger.Info("Order looked up", "order_id", orderID, "exists", lookup.Exists)
	return lookup.Exists, nil
}

// SendVerificationEmail mails the customer the link that activates the warranty
func (a *RegistrationActivities) SendVerificationEmail(ctx context.Context, email models.VerificationEmail) error {
	return a.send(ctx, email, models.MailVerification)
}

// RequestManualReview tells the customer their order needs merchant review
// before a verification link can be sent
func (a *RegistrationActivities) RequestManualReview(ctx context.Context, email models.VerificationEmail) error {
	return a.send(ctx, email, models.MailManualReview)
}

// SendActivationNotice confirms an activated warranty to the customer
func (a *RegistrationActivities) SendActivationNotice(ctx context.Context, email models.VerificationEmail) error {
	return a.send(ctx, email, models.MailActivated)
}

func (a *RegistrationActivities) send(ctx context.Context, email models.VerificationEmail, template models.MailTemplate) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Sending mail", "registration_id", email.RegistrationID, "template", template, "to", email.Email)

	msg := models.MailMessage{
		To:       email.Email,
		Template: template,
		Language: email.Language,
		Data: map[string]string{
			"registration_id": email.RegistrationID,
			"order_id":        email.OrderID,
			"name":            email.Name,
			"link":            email.Link,
		},
	}
	if err := deliver(ctx, a.httpClient, a.mailServiceURL, msg); err != nil {
		return err
	}

	logger.Info("Mail sent", "registration_id", email.RegistrationID, "template", template)
	return nil
}

// deliver posts msg to the mail service, or only logs it when no service is configured
func deliver(ctx context.Context, client *http.Client, mailServiceURL string, msg models.MailMessage) error {
	if mailServiceURL == "" {
		activity.GetLogger(ctx).Info("Mail service not configured, message dropped", "to", msg.To, "template", msg.Template)
		return nil
	}

	activity.RecordHeartbeat(ctx, "calling mail service")

	resp, err := postJSON(ctx, client, fmt.Sprintf("%s/send", mailServiceURL), msg)
	if err != nil {
		return fmt.Errorf("failed to call mail service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail service returned status %d: %s: %w", resp.StatusCode, string(body), ErrServiceUnavailable)
	}
	return nil
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any) (*http.Response, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return client.Do(req)
}
