package types

import (
	"encoding/json"
	"time"
)

// PaystackEnvelope is the outer shape of every Paystack API response.
type PaystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type InitializeTransactionRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference"`
	Currency    string `json:"currency"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type InitializeTransactionData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// PaystackTransaction is the data payload of /transaction/verify and of charge webhooks.
type PaystackTransaction struct {
	ID              int64            `json:"id"`
	Domain          string           `json:"domain"`
	Status          string           `json:"status"`
	Reference       string           `json:"reference"`
	Amount          int64            `json:"amount"`
	Message         *string          `json:"message"`
	GatewayResponse string           `json:"gateway_response"`
	PaidAt          *time.Time       `json:"paid_at"`
	CreatedAt       *time.Time       `json:"created_at"`
	Channel         string           `json:"channel"`
	Currency        string           `json:"currency"`
	IPAddress       string           `json:"ip_address"`
	Fees            int64            `json:"fees"`
	Customer        PaystackCustomer `json:"customer"`
	RequestedAmount int64            `json:"requested_amount"`
}

type PaystackCustomer struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	CustomerCode string  `json:"customer_code"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Phone        *string `json:"phone"`
	RiskAction   string  `json:"risk_action"`
}

type PaystackWebhookEvent struct {
	Event string              `json:"event"`
	Data  PaystackTransaction `json:"data"`
}
