package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Niiaks/paygate/internal/config"
	"github.com/Niiaks/paygate/internal/payment"
	"github.com/Niiaks/paygate/internal/psp"
	"github.com/Niiaks/paygate/internal/redis"
	"github.com/Niiaks/paygate/internal/server"
	"github.com/Niiaks/paygate/internal/webhook"
	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePaystack answers the two Paystack endpoints the proxy calls.
func fakePaystack(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /transaction/initialize", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Reference string `json:"reference"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		io.WriteString(w, `{"status":true,"message":"Authorization URL created","data":{`+
			`"authorization_url":"https://checkout.paystack.com/`+body.Reference+`",`+
			`"access_code":"ac_1","reference":"`+body.Reference+`"}}`)
	})
	mux.HandleFunc("GET /transaction/verify/{reference}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":true,"message":"Verification successful","data":{`+
			`"status":"success","reference":"`+r.PathValue("reference")+`","amount":250050,`+
			`"gateway_response":"Successful","paid_at":"2024-01-01T10:00:00.000Z",`+
			`"customer":{"email":"a@b.com"}}}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, secret string) http.Handler {
	t.Helper()

	paystack := fakePaystack(t)
	cfg := &config.Config{
		Primary: config.PrimaryConfig{Env: config.EnvDevelopment},
		Paystack: config.PaystackConfig{
			SecretKey:     secret,
			WebhookSecret: secret,
			BaseURL:       paystack.URL,
			Currency:      "NGN",
			Timeout:       5 * time.Second,
		},
	}
	log := zerolog.Nop()
	s := &server.Server{Config: cfg, Logger: &log, Endpoints: config.Resolve(cfg)}

	client := psp.NewPaystackClient(cfg.Paystack, &log)
	svc := payment.NewPaymentService(cfg, client)

	return NewRouter(s, &Handlers{
		Payment: payment.NewPaymentHandler(svc, s.Endpoints),
		Webhook: webhook.NewWebhookHandler(cfg.Paystack.WebhookSecret, nil),
	})
}

func TestHealth_NoCredentialNeeded(t *testing.T) {
	r := newTestRouter(t, "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","message":"Payment API is running"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReady(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, "").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"ready":false,"checks":{"paystack":"API key not configured"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	newTestRouter(t, "sk_test_router").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ready":true,"checks":{"paystack":"ok"}}`, rec.Body.String())
}

func TestInitializeThenVerify(t *testing.T) {
	r := newTestRouter(t, "sk_test_router")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/initialize-payment",
		strings.NewReader(`{"email":"a@b.com","amount":2500.50}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var initResp struct {
		Success bool `json:"success"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initResp))
	assert.True(t, initResp.Success)
	assert.True(t, strings.HasPrefix(initResp.Data.Reference, "PAY-"))
	assert.Equal(t, "https://checkout.paystack.com/"+initResp.Data.Reference, initResp.Data.AuthorizationURL)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/verify-payment?reference="+initResp.Data.Reference, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"success": true,
		"data": {
			"status": "success",
			"amount": 2500.5,
			"reference": "`+initResp.Data.Reference+`",
			"gateway_response": "Successful",
			"paid_at": "2024-01-01T10:00:00Z",
			"customer": {"email": "a@b.com"}
		}
	}`, rec.Body.String())
}

func TestCORS_DevelopmentOrigin(t *testing.T) {
	r := newTestRouter(t, "sk_test_router")

	req := httptest.NewRequest(http.MethodOptions, "/api/initialize-payment", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownMethod(t *testing.T) {
	r := newTestRouter(t, "sk_test_router")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/initialize-payment", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReady_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	log := zerolog.Nop()

	rdb, err := redis.New(&log, &config.RedisConfig{
		Address:     mr.Addr(),
		DialTimeout: 200 * time.Millisecond,
		ReadTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		Paystack:  config.PaystackConfig{SecretKey: "sk_test_router", Currency: "NGN"},
		RateLimit: config.RateLimitConfig{Requests: 10, Window: time.Minute},
	}
	s := &server.Server{Config: cfg, Logger: &log, Endpoints: config.Resolve(cfg), Redis: rdb}
	svc := payment.NewPaymentService(cfg, psp.NewPaystackClient(cfg.Paystack, &log))
	r := NewRouter(s, &Handlers{Payment: payment.NewPaymentHandler(svc, s.Endpoints)})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mr.Close()

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"ready":false,"checks":{"paystack":"ok","redis":"unreachable"}}`, rec.Body.String())
}

func TestRateLimit_AppliesToPaymentRoutesOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	log := zerolog.Nop()

	rdb, err := redis.New(&log, &config.RedisConfig{Address: mr.Addr(), DialTimeout: time.Second, ReadTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		Paystack:  config.PaystackConfig{Currency: "NGN"},
		RateLimit: config.RateLimitConfig{Requests: 1, Window: time.Minute},
	}
	s := &server.Server{Config: cfg, Logger: &log, Endpoints: config.Resolve(cfg), Redis: rdb}
	svc := payment.NewPaymentService(cfg, psp.NewPaystackClient(cfg.Paystack, &log))
	r := NewRouter(s, &Handlers{Payment: payment.NewPaymentHandler(svc, s.Endpoints)})

	send := func(method, path string) int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(`{"reference":"PAY-1"}`)))
		return rec.Code
	}

	// No key configured, so the first call fails with 500 but still counts.
	assert.Equal(t, http.StatusInternalServerError, send(http.MethodPost, "/api/verify-payment"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "/api/verify-payment"))
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/health"))
}
