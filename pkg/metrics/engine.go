package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records stock mutation outcomes and outbox dispatch results.
type EngineMetrics struct {
	conflictRetries *prometheus.CounterVec
	outboxPublished *prometheus.CounterVec
	outboxDLQ       prometheus.Counter
	backordersOpen  prometheus.Gauge
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	conflictRetries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_conflict_retries_total",
		Help: "Stock mutations retried after an optimistic lock conflict.",
	}, []string{"operation"})
	outboxPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events dispatched to Pub/Sub by result.",
	}, []string{"result"})
	outboxDLQ := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_dead_lettered_total",
		Help: "Outbox events routed to the dead letter table.",
	})
	backordersOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stock_backordered_units",
		Help: "Inventory units currently waiting on backorder fill.",
	})
	reg.MustRegister(conflictRetries, outboxPublished, outboxDLQ, backordersOpen)
	return &EngineMetrics{
		conflictRetries: conflictRetries,
		outboxPublished: outboxPublished,
		outboxDLQ:       outboxDLQ,
		backordersOpen:  backordersOpen,
	}
}

// IncConflictRetry counts one retried optimistic lock conflict for the operation.
func (e *EngineMetrics) IncConflictRetry(operation string) {
	if e == nil || e.conflictRetries == nil {
		return
	}
	e.conflictRetries.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncPublished counts one dispatch attempt with the given result label.
func (e *EngineMetrics) IncPublished(result string) {
	if e == nil || e.outboxPublished == nil {
		return
	}
	e.outboxPublished.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncDeadLettered counts one event moved to the DLQ.
func (e *EngineMetrics) IncDeadLettered() {
	if e == nil || e.outboxDLQ == nil {
		return
	}
	e.outboxDLQ.Inc()
}

// SetBackorderedUnits records the current open backorder unit count.
func (e *EngineMetrics) SetBackorderedUnits(count float64) {
	if e == nil || e.backordersOpen == nil {
		return
	}
	e.backordersOpen.Set(count)
}
