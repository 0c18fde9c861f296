package webhook

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Niiaks/paygate/internal/kafka"
	"github.com/Niiaks/paygate/internal/middleware"
	"github.com/Niiaks/paygate/pkg/types"
)

const (
	SignatureHeader = "x-paystack-signature"
	maxBodyBytes    = 1 << 20
)

type WebhookHandler struct {
	secret    string
	publisher kafka.Publisher
}

// NewWebhookHandler verifies Paystack deliveries against secret. publisher may
// be nil, in which case verified events are only logged.
func NewWebhookHandler(secret string, publisher kafka.Publisher) *WebhookHandler {
	return &WebhookHandler{
		secret:    secret,
		publisher: publisher,
	}
}

// verifyWebhookSignature checks the hex HMAC-SHA512 of payload.
func verifyWebhookSignature(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	expectedSig := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)

	if h.secret == "" {
		logger.Error().Msg("Webhook secret not configured")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read request body")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !verifyWebhookSignature(body, signature, h.secret) {
		logger.Warn().Msg("Invalid webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var event types.PaystackWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Error().Err(err).Msg("Failed to decode webhook payload")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	log := logger.With().
		Str("event", event.Event).
		Str("reference", event.Data.Reference).
		Logger()

	if h.publisher != nil {
		headers := map[string]string{"event_type": event.Event}
		if requestID := middleware.GetRequestIDFromContext(ctx); requestID != "" {
			headers["request_id"] = requestID
		}

		err := h.publisher.Publish(ctx, kafka.TopicWebhookReceived, []byte(event.Data.Reference), body, headers)
		if err != nil {
			// Paystack retries non-2xx deliveries.
			log.Error().Err(err).Msg("Failed to publish webhook event")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	log.Info().Msg("Webhook received")
	w.WriteHeader(http.StatusOK)
}
