// Package observability provides metric instruments and tracing for hookline.
package observability

import (
	gu "github.com/xraph/go-utils/metrics"
)

// Metrics holds metric instruments for hookline, backed by any go-utils
// MetricFactory.
type Metrics struct {
	EventsDispatchedTotal gu.Counter
	DeliveriesTotal       gu.Counter
	DeliveryLatency       gu.Histogram
	WebhooksDisabledTotal gu.Counter
	InFlightDeliveries    gu.Gauge
}

// NewMetrics creates hookline metric instruments using the supplied factory.
// Pass metrics.NewMetricsCollector() for standalone usage.
func NewMetrics(factory gu.MetricFactory) *Metrics {
	return &Metrics{
		EventsDispatchedTotal: factory.Counter("hookline_events_dispatched_total"),
		DeliveriesTotal:       factory.Counter("hookline_deliveries_total"),
		DeliveryLatency:       factory.Histogram("hookline_delivery_latency_seconds"),
		WebhooksDisabledTotal: factory.Counter("hookline_webhooks_disabled_total"),
		InFlightDeliveries:    factory.Gauge("hookline_inflight_deliveries"),
	}
}

// RecordDelivery records a terminal delivery outcome with the given status
// ("delivered" or "failed") and latency.
func (m *Metrics) RecordDelivery(status string, latencySeconds float64) {
	m.DeliveriesTotal.WithLabels(map[string]string{"status": status}).Inc()
	m.DeliveryLatency.Observe(latencySeconds)
}
