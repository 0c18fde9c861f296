package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Niiaks/paygate/pkg/types"
)

// Publisher is the part of Producer the event adapters need.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// PaymentEvents publishes payment outcomes keyed by reference, so every event
// for one transaction lands on the same partition.
type PaymentEvents struct {
	publisher Publisher
}

func NewPaymentEvents(p Publisher) *PaymentEvents {
	return &PaymentEvents{publisher: p}
}

func (pe *PaymentEvents) PublishPaymentEvent(ctx context.Context, event types.PaymentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payment event: %w", err)
	}

	headers := map[string]string{"event_type": event.Type}
	if event.RequestID != "" {
		headers["request_id"] = event.RequestID
	}

	return pe.publisher.Publish(ctx, TopicPaymentEvents, []byte(event.Reference), payload, headers)
}
