package types

import (
	"encoding/json"
	"time"

	"github.com/calderco/stockroom-backend/pkg/enums"
)

// Envelope is the canonical shape of a domain event pulled off Pub/Sub:
// identity and routing come from the message attributes, the typed payload
// from the stored outbox envelope.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Payload       json.RawMessage           `json:"payload"`
}
