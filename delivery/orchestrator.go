package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/spectree/hookline/payload"
	"github.com/spectree/hookline/webhook"
)

// Orchestrator drives one webhook delivery through repeated attempts until
// success or exhaustion. Attempts are strictly sequential within an
// orchestration; separate orchestrations are independent and may interleave.
type Orchestrator struct {
	sender  *Sender
	retrier *Retrier
	history Store // optional; nil disables history writes
	logger  *slog.Logger

	// OnAttempt, when set, observes every attempt record, including the
	// intermediate failures the final return value does not carry.
	OnAttempt func(*Delivery)
}

// NewOrchestrator creates an orchestrator. history may be nil.
func NewOrchestrator(sender *Sender, retrier *Retrier, history Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		sender:  sender,
		retrier: retrier,
		history: history,
		logger:  logger,
	}
}

// Process attempts delivery until a terminal state and returns the final
// attempt record. Termination is guaranteed: the attempt number strictly
// increases and the ceiling is fixed.
//
// The error return is reserved for argument defects and context
// cancellation; delivery failure itself is reported on the record.
func (o *Orchestrator) Process(ctx context.Context, wh *webhook.Webhook, env payload.Envelope) (*Delivery, error) {
	max := o.retrier.MaxAttempts()

	for attempt := 1; attempt <= max; attempt++ {
		d, err := o.sender.Send(ctx, wh, env, attempt, max)
		if err != nil {
			return nil, err
		}

		if d.Success {
			o.record(ctx, d)
			o.logger.DebugContext(ctx, "webhook delivered",
				"webhook_id", wh.ID, "event", env.Event,
				"attempt", attempt, "status", d.StatusCode, "latency_ms", d.LatencyMs)
			return d, nil
		}

		decision := o.retrier.Schedule(d)
		if !decision.ShouldRetry {
			o.record(ctx, d)
			o.logger.WarnContext(ctx, "webhook delivery exhausted",
				"webhook_id", wh.ID, "event", env.Event,
				"attempts", attempt, "status", d.StatusCode)
			return d, nil
		}

		next := time.Now().UTC().Add(decision.Delay)
		d.NextRetryAt = &next
		o.record(ctx, d)

		o.logger.DebugContext(ctx, "webhook retry scheduled",
			"webhook_id", wh.ID, "event", env.Event,
			"attempt", attempt, "delay", decision.Delay)

		if err := sleep(ctx, decision.Delay); err != nil {
			return d, err
		}
	}

	// Unreachable: Schedule refuses to retry at the ceiling.
	panic("hookline: retry loop exceeded attempt ceiling")
}

// record appends the attempt to history (best effort) and notifies the
// attempt observer.
func (o *Orchestrator) record(ctx context.Context, d *Delivery) {
	if o.history != nil {
		if err := o.history.AppendDelivery(ctx, d); err != nil {
			o.logger.ErrorContext(ctx, "append delivery record failed",
				"delivery_id", d.ID, "webhook_id", d.WebhookID, "error", err)
		}
	}
	if o.OnAttempt != nil {
		o.OnAttempt(d)
	}
}

// sleep waits for d, returning early with the context error on cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
