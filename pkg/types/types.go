package types

import "time"

const (
	EventPaymentInitialized      = "payment.initialized"
	EventPaymentInitializeFailed = "payment.initialize_failed"
	EventPaymentVerified         = "payment.verified"
	EventPaymentVerifyFailed     = "payment.verify_failed"
)

// PaymentEvent is published after every initialize or verify attempt.
// Amounts are in minor units.
type PaymentEvent struct {
	Type       string    `json:"type"`
	Reference  string    `json:"reference"`
	Email      string    `json:"email,omitempty"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency,omitempty"`
	Status     string    `json:"status,omitempty"`
	Error      string    `json:"error,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
