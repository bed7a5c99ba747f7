package release

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/calderco/stockroom-backend/pkg/enums"
	"github.com/calderco/stockroom-backend/pkg/logger"
	"github.com/calderco/stockroom-backend/pkg/outbox"
)

type processor interface {
	Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error
}

// Worker pumps domain events from a Pub/Sub subscription into the consumer.
type Worker struct {
	subscription *gcppubsub.Subscriber
	consumer     processor
	logg         *logger.Logger
}

// NewWorker creates a new release worker.
func NewWorker(subscription *gcppubsub.Subscriber, consumer processor, logg *logger.Logger) (*Worker, error) {
	if subscription == nil {
		return nil, errors.New("domain subscription is required")
	}
	if consumer == nil {
		return nil, errors.New("consumer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	return &Worker{subscription: subscription, consumer: consumer, logg: logg}, nil
}

// Run starts consuming messages until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return w.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if w.process(innerCtx, msg) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process handles one message and reports whether it should be nacked.
func (w *Worker) process(ctx context.Context, msg *gcppubsub.Message) bool {
	logCtx := w.logg.WithField(ctx, "message_id", msg.ID)

	eventType, err := enums.ParseOutboxEventType(strings.TrimSpace(msg.Attributes["event_type"]))
	if err != nil {
		w.logg.Warn(w.logg.WithField(logCtx, "error", err.Error()), "unknown event type")
		return false
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		w.logg.Warn(w.logg.WithField(logCtx, "error", err.Error()), "invalid event envelope")
		return false
	}

	if err := w.consumer.Process(logCtx, eventType, envelope); err != nil {
		w.logg.Error(logCtx, "failed to process event", err)
		return true
	}
	return false
}
