package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Niiaks/paygate/internal/config"
	"github.com/Niiaks/paygate/internal/middleware"
	"github.com/Niiaks/paygate/internal/psp"
	"github.com/rs/zerolog"
)

const (
	msgConfigError    = "Payment service configuration error"
	msgInitializeFail = "Failed to initialize payment"
	msgVerifyFail     = "Failed to verify payment"
	msgInvalidRequest = "Invalid payment request"

	maxBodyBytes = 1 << 20
)

type PaymentHandler struct {
	service   *PaymentService
	endpoints config.Endpoints
}

func NewPaymentHandler(service *PaymentService, endpoints config.Endpoints) *PaymentHandler {
	return &PaymentHandler{
		service:   service,
		endpoints: endpoints,
	}
}

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type failureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   any    `json:"error"`
}

func (ph *PaymentHandler) InitializePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	var req PaymentRequest
	if err := decodeBody(w, r, &req); err != nil {
		logger.Error().Err(err).Msg("Failed to decode initialize payment request")
		writeFailure(w, http.StatusBadRequest, msgInvalidRequest, "invalid request payload")
		return
	}
	req.CallbackURL = ph.callbackURL(r)

	res, err := ph.service.Initialize(ctx, &req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		ph.fail(w, logger, msgInitializeFail, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: res})
	logger.Info().Str("reference", res.Reference).Msg("Payment initialized successfully")
}

// VerifyPayment accepts the reference as a JSON body (POST) or as the
// reference/trxref query parameter Paystack appends on redirect (GET).
func (ph *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	var req VerifyRequest
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req.Reference = q.Get("reference")
		if req.Reference == "" {
			req.Reference = q.Get("trxref")
		}
	} else if err := decodeBody(w, r, &req); err != nil {
		logger.Error().Err(err).Msg("Failed to decode verify payment request")
		writeFailure(w, http.StatusBadRequest, msgInvalidRequest, "invalid request payload")
		return
	}

	res, err := ph.service.Verify(ctx, req.Reference)
	if err != nil {
		ph.fail(w, logger, msgVerifyFail, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: res})
}

// fail maps a service error to the uniform failure body and logs it.
func (ph *PaymentHandler) fail(w http.ResponseWriter, logger *zerolog.Logger, message string, err error) {
	var (
		ve *ValidationError
		ge *psp.GatewayError
	)

	switch {
	case errors.Is(err, ErrNotConfigured):
		writeFailure(w, http.StatusInternalServerError, msgConfigError, err.Error())
	case errors.As(err, &ve):
		logger.Warn().Err(err).Msg("Rejected payment request")
		writeFailure(w, http.StatusBadRequest, msgInvalidRequest, ve.Error())
	case errors.Is(err, ErrInFlight):
		writeFailure(w, http.StatusConflict, message, err.Error())
	case errors.As(err, &ge):
		event := logger.Error().Err(err).Int("status", ge.StatusCode)
		if len(ge.Body) > 0 {
			event = event.RawJSON("response", ge.Body)
		}
		event.Msg(message)

		if len(ge.Body) > 0 {
			writeFailure(w, http.StatusInternalServerError, message, ge.Body)
			return
		}
		writeFailure(w, http.StatusInternalServerError, message, ge.Error())
	default:
		logger.Error().Err(err).Msg(message)
		writeFailure(w, http.StatusInternalServerError, message, err.Error())
	}
}

func (ph *PaymentHandler) callbackURL(r *http.Request) string {
	if ph.endpoints.CallbackURL != "" {
		return ph.endpoints.CallbackURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	// Proxies may append a list; the first hop is the client's.
	proto, _, _ := strings.Cut(r.Header.Get("X-Forwarded-Proto"), ",")
	switch proto = strings.ToLower(strings.TrimSpace(proto)); proto {
	case "http", "https":
		scheme = proto
	}
	return scheme + "://" + r.Host + config.VerifyPath
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeFailure(w http.ResponseWriter, status int, message string, detail any) {
	writeJSON(w, status, failureResponse{
		Success: false,
		Message: message,
		Error:   detail,
	})
}
