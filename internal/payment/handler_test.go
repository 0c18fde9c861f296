package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Niiaks/paygate/internal/config"
	"github.com/Niiaks/paygate/internal/psp"
	"github.com/Niiaks/paygate/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(secret string, gw Gateway, endpoints config.Endpoints) *PaymentHandler {
	return NewPaymentHandler(NewPaymentService(testConfig(secret), gw), endpoints)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestInitializePaymentHandler_Success(t *testing.T) {
	gw := &fakeGateway{}
	h := newTestHandler("sk_test", gw, config.Endpoints{})

	req := httptest.NewRequest(http.MethodPost, "http://localhost:5000/api/initialize-payment",
		strings.NewReader(`{"email":"a@b.com","amount":1000,"reference":"PAY-1"}`))
	rec := httptest.NewRecorder()

	h.InitializePayment(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeResponse(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "https://checkout.paystack.com/PAY-1", data["authorization_url"])
	assert.Equal(t, "code-PAY-1", data["access_code"])
	assert.Equal(t, "PAY-1", data["reference"])

	require.Len(t, gw.initCalls, 1)
	assert.Equal(t, int64(100000), gw.initCalls[0].Amount)
	assert.Equal(t, "http://localhost:5000/api/verify-payment", gw.initCalls[0].CallbackURL)
}

func TestInitializePaymentHandler_CallbackURL(t *testing.T) {
	tests := []struct {
		name      string
		endpoints config.Endpoints
		proto     string
		expected  string
	}{
		{"fixed production url", config.Endpoints{CallbackURL: "https://pay.example.com/api/verify-payment"}, "", "https://pay.example.com/api/verify-payment"},
		{"derived from request", config.Endpoints{}, "", "http://api.local:5000/api/verify-payment"},
		{"forwarded proto", config.Endpoints{}, "https", "https://api.local:5000/api/verify-payment"},
		{"forwarded proto list", config.Endpoints{}, "HTTPS, http", "https://api.local:5000/api/verify-payment"},
		{"unsupported forwarded proto", config.Endpoints{}, "javascript", "http://api.local:5000/api/verify-payment"},
		{"forwarded proto with url", config.Endpoints{}, "https://evil.example/x?", "http://api.local:5000/api/verify-payment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			h := newTestHandler("sk_test", gw, tt.endpoints)

			req := httptest.NewRequest(http.MethodPost, "http://api.local:5000/api/initialize-payment",
				strings.NewReader(`{"email":"a@b.com","amount":5}`))
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			rec := httptest.NewRecorder()

			h.InitializePayment(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			require.Len(t, gw.initCalls, 1)
			assert.Equal(t, tt.expected, gw.initCalls[0].CallbackURL)
		})
	}
}

func TestInitializePaymentHandler_MissingCredential(t *testing.T) {
	gw := &fakeGateway{}
	h := newTestHandler("", gw, config.Endpoints{})

	req := httptest.NewRequest(http.MethodPost, "/api/initialize-payment",
		strings.NewReader(`{"email":"a@b.com","amount":1000}`))
	rec := httptest.NewRecorder()

	h.InitializePayment(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Payment service configuration error", body["message"])
	assert.Equal(t, "API key not configured", body["error"])
	assert.Empty(t, gw.initCalls)
}

func TestInitializePaymentHandler_GatewayPayloadRelayedVerbatim(t *testing.T) {
	gw := &fakeGateway{initErr: &psp.GatewayError{
		StatusCode: 400,
		Message:    "Duplicate Transaction Reference",
		Body:       json.RawMessage(`{"status":false,"message":"Duplicate Transaction Reference"}`),
	}}
	h := newTestHandler("sk_test", gw, config.Endpoints{})

	req := httptest.NewRequest(http.MethodPost, "/api/initialize-payment",
		strings.NewReader(`{"email":"a@b.com","amount":1000,"reference":"PAY-1"}`))
	rec := httptest.NewRecorder()

	h.InitializePayment(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to initialize payment", body["message"])
	assert.Equal(t, map[string]any{"status": false, "message": "Duplicate Transaction Reference"}, body["error"])
}

func TestInitializePaymentHandler_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"empty body", ``},
		{"zero amount", `{"email":"a@b.com","amount":0}`},
		{"non numeric amount", `{"email":"a@b.com","amount":"lots"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			h := newTestHandler("sk_test", gw, config.Endpoints{})

			req := httptest.NewRequest(http.MethodPost, "/api/initialize-payment", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.InitializePayment(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeResponse(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Invalid payment request", body["message"])
			assert.Empty(t, gw.initCalls)
		})
	}
}

func TestInitializePaymentHandler_HugeAmountRejectedQuickly(t *testing.T) {
	for _, amount := range []string{"1e50000000", "1e-50000000"} {
		t.Run(amount, func(t *testing.T) {
			gw := &fakeGateway{}
			h := newTestHandler("sk_test", gw, config.Endpoints{})

			req := httptest.NewRequest(http.MethodPost, "/api/initialize-payment",
				strings.NewReader(`{"email":"a@b.com","amount":`+amount+`}`))
			rec := httptest.NewRecorder()

			start := time.Now()
			h.InitializePayment(rec, req)

			assert.Less(t, time.Since(start), time.Second)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Less(t, rec.Body.Len(), 256)
			body := decodeResponse(t, rec)
			assert.Equal(t, "Invalid payment request", body["message"])
			assert.Empty(t, gw.initCalls)
		})
	}
}

func TestVerifyPaymentHandler_Post(t *testing.T) {
	gw := &fakeGateway{tx: &types.PaystackTransaction{
		Status:          "success",
		Reference:       "PAY-1",
		Amount:          100000,
		GatewayResponse: "Successful",
		Customer:        types.PaystackCustomer{Email: "a@b.com"},
	}}
	h := newTestHandler("sk_test", gw, config.Endpoints{})

	req := httptest.NewRequest(http.MethodPost, "/api/verify-payment", strings.NewReader(`{"reference":"PAY-1"}`))
	rec := httptest.NewRecorder()

	h.VerifyPayment(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"success": true,
		"data": {
			"status": "success",
			"amount": 1000,
			"reference": "PAY-1",
			"gateway_response": "Successful",
			"paid_at": null,
			"customer": {"email": "a@b.com"}
		}
	}`, rec.Body.String())
}

func TestVerifyPaymentHandler_GetWithTrxref(t *testing.T) {
	gw := &fakeGateway{tx: &types.PaystackTransaction{Status: "success", Reference: "PAY-9", Amount: 1250}}
	h := newTestHandler("sk_test", gw, config.Endpoints{})

	req := httptest.NewRequest(http.MethodGet, "/api/verify-payment?trxref=PAY-9&reference=", nil)
	rec := httptest.NewRecorder()

	h.VerifyPayment(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"PAY-9"}, gw.verifyCalls)
	body := decodeResponse(t, rec)
	assert.Equal(t, 12.5, body["data"].(map[string]any)["amount"])
}

func TestVerifyPaymentHandler_Timeout(t *testing.T) {
	gw := &fakeGateway{verifyErr: &psp.TransportError{Op: "request failed", Err: context.DeadlineExceeded}}
	h := newTestHandler("sk_test", gw, config.Endpoints{})

	req := httptest.NewRequest(http.MethodPost, "/api/verify-payment", strings.NewReader(`{"reference":"PAY-1"}`))
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() { h.VerifyPayment(rec, req) })

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to verify payment", body["message"])
	assert.Contains(t, body["error"], "context deadline exceeded")
}

func TestVerifyPaymentHandler_MissingReference(t *testing.T) {
	gw := &fakeGateway{}
	h := newTestHandler("sk_test", gw, config.Endpoints{})

	req := httptest.NewRequest(http.MethodPost, "/api/verify-payment", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.VerifyPayment(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, gw.verifyCalls)
}
