package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Niiaks/paygate/internal/config"
	loggerPkg "github.com/Niiaks/paygate/internal/logger"
	"github.com/Niiaks/paygate/internal/middleware"
	"github.com/Niiaks/paygate/internal/money"
	"github.com/Niiaks/paygate/internal/redis"
	"github.com/Niiaks/paygate/pkg/types"
	"github.com/go-playground/validator/v10"
)

const (
	idempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed request can hold its key.
	pendingTTL = 2 * time.Minute
)

// Gateway is the payment provider the service forwards to.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req *types.InitializeTransactionRequest) (*types.InitializeTransactionData, error)
	VerifyTransaction(ctx context.Context, reference string) (*types.PaystackTransaction, error)
}

// EventPublisher receives a copy of every initialize and verify outcome.
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event types.PaymentEvent) error
}

// IdempotencyStore caches initialize responses by Idempotency-Key.
type IdempotencyStore interface {
	CheckAndSetIdempotency(ctx context.Context, key string, ttl time.Duration) ([]byte, error)
	MarkIdempotencyComplete(ctx context.Context, key string, response []byte, ttl time.Duration) error
	MarkIdempotencyFailed(ctx context.Context, key string) error
}

type PaymentService struct {
	gateway       Gateway
	hasCredential bool
	currency      string
	events        EventPublisher
	idempotency   IdempotencyStore
}

type Option func(*PaymentService)

func WithEventPublisher(p EventPublisher) Option {
	return func(ps *PaymentService) { ps.events = p }
}

func WithIdempotencyStore(s IdempotencyStore) Option {
	return func(ps *PaymentService) { ps.idempotency = s }
}

func NewPaymentService(cfg *config.Config, gateway Gateway, opts ...Option) *PaymentService {
	ps := &PaymentService{
		gateway:       gateway,
		hasCredential: cfg.HasCredential(),
		currency:      cfg.Paystack.Currency,
	}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

var validate = validator.New()

// Initialize converts the amount to minor units and starts a Paystack
// transaction. An empty reference is replaced by a generated one.
func (ps *PaymentService) Initialize(ctx context.Context, req *PaymentRequest, idempotencyKey string) (*PaymentInitResult, error) {
	logger := middleware.GetLogger(ctx)

	if !ps.hasCredential {
		logger.Error().Msg("Paystack secret key is not set")
		return nil, ErrNotConfigured
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Reference = strings.TrimSpace(req.Reference)

	if err := validate.Struct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}
	if !req.Amount.IsPositive() {
		return nil, invalid("amount must be greater than zero")
	}

	minor, err := money.ToMinor(req.Amount)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}
	if minor <= 0 {
		return nil, invalid("amount is smaller than the minimum currency unit")
	}

	if req.Reference == "" {
		req.Reference = NewReference()
		logger.Debug().Str("reference", req.Reference).Msg("Generated payment reference")
	}

	useIdempotency := idempotencyKey != "" && ps.idempotency != nil
	if useIdempotency {
		cached, err := ps.idempotency.CheckAndSetIdempotency(ctx, idempotencyKey, pendingTTL)
		switch {
		case cached != nil:
			var res PaymentInitResult
			if err := json.Unmarshal(cached, &res); err == nil {
				logger.Info().Str("reference", res.Reference).Msg("Returning cached initialize response for idempotency key")
				return &res, nil
			}
			logger.Warn().Msg("Cached initialize response is unreadable, ignoring it")
			useIdempotency = false
		case errors.Is(err, redis.ErrKeyExists):
			logger.Warn().Msg("Request still in progress with same idempotency key")
			return nil, ErrInFlight
		case err != nil:
			// Redis trouble must not block payments; carry on without the cache.
			logger.Warn().Err(err).Msg("Idempotency check failed, continuing without it")
			useIdempotency = false
		}
	}

	logger.Info().
		Str("email", loggerPkg.MaskEmail(req.Email)).
		Str("amount", req.Amount.String()).
		Int64("amount_minor", minor).
		Str("reference", req.Reference).
		Msg("Initializing payment")

	data, err := ps.gateway.InitializeTransaction(ctx, &types.InitializeTransactionRequest{
		Email:       req.Email,
		Amount:      minor,
		Reference:   req.Reference,
		Currency:    ps.currency,
		CallbackURL: req.CallbackURL,
	})
	// The key must be settled even when the caller has gone away.
	settleCtx := context.WithoutCancel(ctx)

	if err != nil {
		if useIdempotency {
			if mErr := ps.idempotency.MarkIdempotencyFailed(settleCtx, idempotencyKey); mErr != nil {
				logger.Warn().Err(mErr).Msg("Failed to release idempotency key")
			}
		}
		ps.publish(ctx, types.PaymentEvent{
			Type:      types.EventPaymentInitializeFailed,
			Reference: req.Reference,
			Email:     req.Email,
			Amount:    minor,
			Currency:  ps.currency,
			Error:     err.Error(),
		})
		return nil, fmt.Errorf("failed to initialize payment: %w", err)
	}

	res := &PaymentInitResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}

	if useIdempotency {
		responseBytes, _ := json.Marshal(res)
		if err := ps.idempotency.MarkIdempotencyComplete(settleCtx, idempotencyKey, responseBytes, idempotencyTTL); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache initialize response")
		}
	}

	ps.publish(ctx, types.PaymentEvent{
		Type:      types.EventPaymentInitialized,
		Reference: res.Reference,
		Email:     req.Email,
		Amount:    minor,
		Currency:  ps.currency,
		Status:    "pending",
	})

	return res, nil
}

// Verify looks a transaction up by reference and converts its amount back to major units.
func (ps *PaymentService) Verify(ctx context.Context, reference string) (*VerificationResult, error) {
	logger := middleware.GetLogger(ctx)

	if !ps.hasCredential {
		logger.Error().Msg("Paystack secret key is not set")
		return nil, ErrNotConfigured
	}

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, invalid("reference is required")
	}

	tx, err := ps.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		ps.publish(ctx, types.PaymentEvent{
			Type:      types.EventPaymentVerifyFailed,
			Reference: reference,
			Error:     err.Error(),
		})
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	res := &VerificationResult{
		Status:          tx.Status,
		Amount:          money.FromMinor(tx.Amount),
		Reference:       tx.Reference,
		GatewayResponse: tx.GatewayResponse,
		PaidAt:          tx.PaidAt,
		Customer:        Customer{Email: tx.Customer.Email},
	}

	logger.Info().
		Str("reference", res.Reference).
		Str("status", res.Status).
		Str("amount", res.Amount.String()).
		Msg("Payment verified")

	ps.publish(ctx, types.PaymentEvent{
		Type:      types.EventPaymentVerified,
		Reference: res.Reference,
		Email:     res.Customer.Email,
		Amount:    tx.Amount,
		Currency:  tx.Currency,
		Status:    res.Status,
	})

	return res, nil
}

func (ps *PaymentService) publish(ctx context.Context, event types.PaymentEvent) {
	if ps.events == nil {
		return
	}

	event.RequestID = middleware.GetRequestIDFromContext(ctx)
	event.OccurredAt = time.Now().UTC()

	if err := ps.events.PublishPaymentEvent(ctx, event); err != nil {
		middleware.GetLogger(ctx).Warn().Err(err).Str("event", event.Type).Msg("Failed to publish payment event")
	}
}
