package activities_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"warranty-registration/activities"
	"warranty-registration/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

func TestLookupOrder(t *testing.T) {
	tests := []struct {
		name          string
		orderID       string
		mockHandler   func(w http.ResponseWriter, r *http.Request)
		want          bool
		wantErr       bool
		errorType     string
		errorContains string
	}{
		{
			name:    "Success - Order Exists",
			orderID: "1001",
			mockHandler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(models.OrderLookupResponse{Exists: true})
			},
			want: true,
		},
		{
			name:    "Success - Order Unknown",
			orderID: "1002",
			mockHandler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(models.OrderLookupResponse{Exists: false, Message: "no such order"})
			},
			want: false,
		},
		{
			name:    "Success - Not Found Means Unknown",
			orderID: "ORD-404",
			mockHandler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			want: false,
		},
		{
			name:    "Failure - Conflict Is Not Retried",
			orderID: "1003",
			mockHandler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte("matches 2 orders"))
			},
			wantErr:       true,
			errorType:     activities.ErrTypeOrderConflict,
			errorContains: "matches 2 orders",
		},
		{
			name:    "Failure - Server Error",
			orderID: "1004",
			mockHandler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Internal Server Error"))
			},
			wantErr:       true,
			errorContains: "status 500",
		},
		{
			name:    "Failure - Malformed Reply",
			orderID: "1006",
			mockHandler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{not json"))
			},
			wantErr:       true,
			errorContains: "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testSuite := &testsuite.WorkflowTestSuite{}
			env := testSuite.NewTestActivityEnvironment()

			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/orders/lookup", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req models.OrderLookupRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, tt.orderID, req.OrderID)

				tt.mockHandler(w, r)
			}))
			defer mockServer.Close()

			act := activities.NewRegistrationActivities(mockServer.URL, "")
			env.RegisterActivity(act.LookupOrder)

			val, err := env.ExecuteActivity(act.LookupOrder, tt.orderID)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				if tt.errorType != "" {
					var appErr *temporal.ApplicationError
					require.True(t, errors.As(err, &appErr))
					assert.Equal(t, tt.errorType, appErr.Type())
					assert.True(t, appErr.NonRetryable())
				}
				return
			}

			require.NoError(t, err)
			var exists bool
			require.NoError(t, val.Get(&exists))
			assert.Equal(t, tt.want, exists)
		})
	}
}

func TestLookupOrder_ParityFallback(t *testing.T) {
	tests := []struct {
		orderID string
		want    bool
	}{
		{"12", true},
		{"13", false},
		{"", false},
		{"abc", false},
		{" 40 ", true},
	}

	for _, tt := range tests {
		t.Run("order "+tt.orderID, func(t *testing.T) {
			testSuite := &testsuite.WorkflowTestSuite{}
			env := testSuite.NewTestActivityEnvironment()

			act := activities.NewRegistrationActivities("", "")
			env.RegisterActivity(act.LookupOrder)

			val, err := env.ExecuteActivity(act.LookupOrder, tt.orderID)
			require.NoError(t, err)

			var exists bool
			require.NoError(t, val.Get(&exists))
			assert.Equal(t, tt.want, exists)
		})
	}
}

func TestRegistrationMail(t *testing.T) {
	email := models.VerificationEmail{
		RegistrationID: "warranty-registration-1",
		OrderID:        "1002",
		Name:           "Jane Doe",
		Email:          "jane@example.com",
		Language:       models.LanguageChinese,
		Link:           "http://localhost:8080/verify/warranty-registration-1/token",
	}

	tests := []struct {
		name         string
		wantTemplate models.MailTemplate
		status       int
		wantErr      bool
	}{
		{
			name:         "Success - Verification Email",
			wantTemplate: models.MailVerification,
			status:       http.StatusOK,
		},
		{
			name:         "Success - Manual Review",
			wantTemplate: models.MailManualReview,
			status:       http.StatusAccepted,
		},
		{
			name:         "Success - Activation Notice",
			wantTemplate: models.MailActivated,
			status:       http.StatusOK,
		},
		{
			name:         "Failure - Mail Service Down",
			wantTemplate: models.MailVerification,
			status:       http.StatusServiceUnavailable,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testSuite := &testsuite.WorkflowTestSuite{}
			env := testSuite.NewTestActivityEnvironment()

			var got models.MailMessage
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/send", r.URL.Path)
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.status)
			}))
			defer mockServer.Close()

			mailAct := activities.NewRegistrationActivities("", mockServer.URL)
			env.RegisterActivity(mailAct)

			var fn any
			switch tt.wantTemplate {
			case models.MailVerification:
				fn = mailAct.SendVerificationEmail
			case models.MailManualReview:
				fn = mailAct.RequestManualReview
			default:
				fn = mailAct.SendActivationNotice
			}

			_, err := env.ExecuteActivity(fn, email)

			assert.Equal(t, tt.wantTemplate, got.Template)
			assert.Equal(t, email.Email, got.To)
			assert.Equal(t, models.LanguageChinese, got.Language)
			assert.Equal(t, email.Link, got.Data["link"])

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "status 503")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistrationMail_NoServiceConfigured(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()

	act := activities.NewRegistrationActivities("", "")
	env.RegisterActivity(act)

	_, err := env.ExecuteActivity(act.SendVerificationEmail, models.VerificationEmail{
		RegistrationID: "warranty-registration-2",
		Email:          "sam@example.com",
	})
	assert.NoError(t, err)
}
