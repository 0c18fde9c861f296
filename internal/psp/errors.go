package psp

import (
	"encoding/json"
	"fmt"
)

// GatewayError is returned when Paystack answered but did not report success.
type GatewayError struct {
	StatusCode int
	Message    string
	// Body is the raw response body, kept verbatim when it is valid JSON.
	Body json.RawMessage
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("paystack error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("paystack error: status=%d", e.StatusCode)
}

// TransportError is returned when Paystack could not be reached or its reply
// could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newGatewayError(status int, body []byte) *GatewayError {
	ge := &GatewayError{StatusCode: status}

	if json.Valid(body) {
		ge.Body = json.RawMessage(body)
		var envelope struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil {
			ge.Message = envelope.Message
		}
	} else if len(body) > 0 {
		ge.Message = string(body)
	}

	return ge
}
