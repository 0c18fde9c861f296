package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// mockPaystack mimics the two transaction endpoints paygate calls. Every
// initialized transaction verifies as successful.
type mockPaystack struct {
	mu           sync.Mutex
	transactions map[string]transaction
	log          zerolog.Logger
}

type transaction struct {
	Email     string
	Amount    int64
	Currency  string
	CreatedAt time.Time
}

type envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func newMockPaystack(log zerolog.Logger) *mockPaystack {
	return &mockPaystack{
		transactions: make(map[string]transaction),
		log:          log,
	}
}

func (m *mockPaystack) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requireBearer)
	r.Post("/transaction/initialize", m.initialize)
	r.Get("/transaction/verify/{reference}", m.verify)
	return r
}

func requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			respond(w, http.StatusUnauthorized, envelope{Message: "Invalid key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *mockPaystack) initialize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Amount    int64  `json:"amount"`
		Reference string `json:"reference"`
		Currency  string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, envelope{Message: "Invalid request body"})
		return
	}
	if req.Amount <= 0 {
		respond(w, http.StatusBadRequest, envelope{Message: "Invalid Amount Sent"})
		return
	}
	if req.Reference == "" {
		req.Reference = "mock_ref_" + uuid.NewString()
	}

	m.mu.Lock()
	if _, exists := m.transactions[req.Reference]; exists {
		m.mu.Unlock()
		respond(w, http.StatusBadRequest, envelope{Message: "Duplicate Transaction Reference"})
		return
	}
	m.transactions[req.Reference] = transaction{
		Email:     req.Email,
		Amount:    req.Amount,
		Currency:  req.Currency,
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Unlock()

	respond(w, http.StatusOK, envelope{
		Status:  true,
		Message: "Authorization URL created",
		Data: map[string]string{
			"authorization_url": "https://checkout.paystack.com/" + req.Reference,
			"access_code":       "mock_access_code",
			"reference":         req.Reference,
		},
	})

	m.log.Info().Str("reference", req.Reference).Int64("amount", req.Amount).Msg("initialized mock transaction")
}

func (m *mockPaystack) verify(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	m.mu.Lock()
	tx, ok := m.transactions[reference]
	m.mu.Unlock()

	if !ok {
		respond(w, http.StatusBadRequest, envelope{Message: "Transaction reference not found"})
		return
	}

	respond(w, http.StatusOK, envelope{
		Status:  true,
		Message: "Verification successful",
		Data: map[string]any{
			"status":           "success",
			"reference":        reference,
			"amount":           tx.Amount,
			"currency":         tx.Currency,
			"gateway_response": "Successful",
			"paid_at":          tx.CreatedAt.Add(time.Second).Format(time.RFC3339),
			"customer":         map[string]string{"email": tx.Email},
		},
	})

	m.log.Info().Str("reference", reference).Msg("verified mock transaction")
}

func respond(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", "mock-paystack").Logger()

	addr := ":8081"
	if port := os.Getenv("MOCK_PAYSTACK_PORT"); port != "" {
		addr = ":" + port
	}

	log.Info().Str("addr", addr).Msg("Mock Paystack server starting")
	if err := http.ListenAndServe(addr, newMockPaystack(log).routes()); err != nil {
		log.Fatal().Err(err).Msg("mock server stopped")
	}
}
