package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Niiaks/paygate/internal/kafka"
	loggerPkg "github.com/Niiaks/paygate/internal/logger"
	"github.com/Niiaks/paygate/pkg/types"
	"github.com/rs/zerolog"
)

// auditHandler writes every payment and webhook event to the log. A record
// that cannot be decoded is logged and skipped; retrying would not fix it.
func auditHandler(log *zerolog.Logger) kafka.Handler {
	return func(ctx context.Context, msg *kafka.Message) error {
		switch msg.Topic {
		case kafka.TopicPaymentEvents:
			var event types.PaymentEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to unmarshal payment event")
				return nil
			}
			recordEntry(log, msg).
				Str("event", event.Type).
				Str("reference", event.Reference).
				Str("email", loggerPkg.MaskEmail(event.Email)).
				Int64("amount", event.Amount).
				Str("currency", event.Currency).
				Str("status", event.Status).
				Str("error", event.Error).
				Time("occurred_at", event.OccurredAt).
				Msg("payment event")

		case kafka.TopicWebhookReceived:
			var event types.PaystackWebhookEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to unmarshal webhook event")
				return nil
			}
			recordEntry(log, msg).
				Str("event", event.Event).
				Str("reference", event.Data.Reference).
				Str("email", loggerPkg.MaskEmail(event.Data.Customer.Email)).
				Int64("amount", event.Data.Amount).
				Str("status", event.Data.Status).
				Msg("webhook event")

		default:
			return fmt.Errorf("unexpected topic %q", msg.Topic)
		}

		return nil
	}
}

func recordEntry(log *zerolog.Logger, msg *kafka.Message) *zerolog.Event {
	return log.Info().
		Str("topic", msg.Topic).
		Int32("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Str("request_id", msg.Headers["request_id"])
}
