package payment

import (
	"errors"
	"time"

	"github.com/Niiaks/paygate/internal/money"
)

var (
	// ErrNotConfigured means no Paystack secret key is available.
	ErrNotConfigured = errors.New("API key not configured")
	// ErrInFlight means another request with the same Idempotency-Key has not finished.
	ErrInFlight = errors.New("a request with this Idempotency-Key is still in progress")
)

// ValidationError wraps a rejected caller input.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(msg string) error {
	return &ValidationError{Err: errors.New(msg)}
}

// PaymentRequest is the body of POST /api/initialize-payment. Amount is in major units.
type PaymentRequest struct {
	Email     string      `json:"email" validate:"required,email"`
	Amount    money.Major `json:"amount"`
	Reference string      `json:"reference" validate:"omitempty,max=100"`

	// CallbackURL is filled in by the handler, never by the caller.
	CallbackURL string `json:"-"`
}

type VerifyRequest struct {
	Reference string `json:"reference"`
}

type PaymentInitResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Customer struct {
	Email string `json:"email"`
}

// VerificationResult is a verified Paystack transaction with the amount in major units.
type VerificationResult struct {
	Status          string      `json:"status"`
	Amount          money.Major `json:"amount"`
	Reference       string      `json:"reference"`
	GatewayResponse string      `json:"gateway_response"`
	PaidAt          *time.Time  `json:"paid_at"`
	Customer        Customer    `json:"customer"`
}
