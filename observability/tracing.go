package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/spectree/hookline"

// Tracer provides OpenTelemetry tracing for hookline.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new hookline tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartDeliverySpan starts a new span for a delivery orchestration.
func (t *Tracer) StartDeliverySpan(ctx context.Context, webhookID, event string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "hookline.delivery",
		trace.WithAttributes(
			attribute.String("hookline.webhook_id", webhookID),
			attribute.String("hookline.event", event),
		),
	)
}

// EndDeliverySpan ends a delivery span with the terminal result.
func (t *Tracer) EndDeliverySpan(span trace.Span, statusCode, attempts, latencyMs int, success bool) {
	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Int("hookline.attempts", attempts),
		attribute.Int("hookline.latency_ms", latencyMs),
		attribute.Bool("hookline.success", success),
	)
	span.End()
}
