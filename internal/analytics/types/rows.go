package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// StockEventRow mirrors the stock_events BigQuery schema. One row per stock
// movement fact: adjustments, reservations, releases, backorder fills,
// location lifecycle and transfer outcomes. Dimensions that do not apply to
// a given event type stay NULL; the full payload rides along as JSON.
type StockEventRow struct {
	EventID               string             `bigquery:"event_id"`
	EventType             string             `bigquery:"event_type"`
	OccurredAt            time.Time          `bigquery:"occurred_at"`
	AggregateType         string             `bigquery:"aggregate_type"`
	AggregateID           string             `bigquery:"aggregate_id"`
	StockItemID           *string            `bigquery:"stock_item_id"`
	VariantID             *string            `bigquery:"variant_id"`
	StockLocationID       *string            `bigquery:"stock_location_id"`
	SourceLocationID      *string            `bigquery:"source_location_id"`
	DestinationLocationID *string            `bigquery:"destination_location_id"`
	OrderID               *string            `bigquery:"order_id"`
	Quantity              *int64             `bigquery:"quantity"`
	QtyOnHand             *int64             `bigquery:"qty_on_hand"`
	QtyReserved           *int64             `bigquery:"qty_reserved"`
	Backordered           *int64             `bigquery:"backordered"`
	Originator            *string            `bigquery:"originator"`
	Reason                *string            `bigquery:"reason"`
	Payload               cbigquery.NullJSON `bigquery:"payload"`
}

// OrderEventRow mirrors the order_events BigQuery schema. One row per order
// lifecycle fact: state transitions, completion, cancellation, cart
// mutations, payments and shipment dispatch.
type OrderEventRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	AggregateType string             `bigquery:"aggregate_type"`
	AggregateID   string             `bigquery:"aggregate_id"`
	OrderID       *string            `bigquery:"order_id"`
	OrderNumber   *string            `bigquery:"order_number"`
	FromState     *string            `bigquery:"from_state"`
	ToState       *string            `bigquery:"to_state"`
	LineItemID    *string            `bigquery:"line_item_id"`
	VariantID     *string            `bigquery:"variant_id"`
	PaymentID     *string            `bigquery:"payment_id"`
	ShipmentID    *string            `bigquery:"shipment_id"`
	Quantity      *int64             `bigquery:"quantity"`
	AmountCents   *int64             `bigquery:"amount_cents"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}
