package hookline

import (
	"context"
	"fmt"
	"time"

	"github.com/spectree/hookline/catalog"
	"github.com/spectree/hookline/delivery"
	"github.com/spectree/hookline/id"
	"github.com/spectree/hookline/payload"
	"github.com/spectree/hookline/scope"
	"github.com/spectree/hookline/store"
	"github.com/spectree/hookline/webhook"
)

// wireServices initializes the internal services after options have been applied.
func (e *Engine) wireServices() {
	e.catalog = catalog.New()
	e.validator = catalog.NewValidator()

	e.webhookSvc = webhook.NewService(e.store, e.logger)
	e.monitor = webhook.NewMonitor(e.config.FailureThreshold)

	e.sender = delivery.NewSender(e.config.RequestTimeout, e.logger)

	retrier := delivery.NewRetrier(e.config.MaxRetryAttempts, e.config.RetryDelays)
	e.orchestrator = delivery.NewOrchestrator(e.sender, retrier, e.store, e.logger)
	e.orchestrator.OnAttempt = e.onAttempt

	concurrency := e.config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	e.sem = make(chan struct{}, concurrency)
	e.closed = make(chan struct{})
	e.baseCtx, e.cancel = context.WithCancel(context.Background())
}

// Dispatch validates an event, resolves the subscribed webhooks, and launches
// one delivery orchestration per match. It returns the number of webhooks
// matched; the orchestrations themselves run in the background.
//
// The critical path:
//  1. Validate the event against the catalog. Unknown event types are
//     rejected only when the catalog has registrations; an empty catalog
//     means the caller owns the event vocabulary.
//  2. Resolve active webhooks subscribed to this event type.
//  3. Fan out: one orchestration per webhook, each with its own payload
//     projection, bounded by the configured concurrency.
func (e *Engine) Dispatch(ctx context.Context, eventType string, data map[string]any) (int, error) {
	select {
	case <-e.closed:
		return 0, ErrEngineClosed
	default:
	}

	// 1. Catalog validation.
	if def, ok := e.catalog.Get(eventType); ok {
		if len(def.Schema) > 0 {
			if err := e.validator.Validate(def.Schema, data); err != nil {
				return 0, fmt.Errorf("%w: %s", ErrPayloadValidationFailed, err.Error())
			}
		}
	} else if e.catalog.Len() > 0 {
		return 0, fmt.Errorf("%w: %s", ErrEventTypeNotFound, eventType)
	}

	// 2. Resolve subscribers.
	webhooks, err := e.store.Resolve(ctx, eventType)
	if err != nil {
		return 0, fmt.Errorf("hookline: resolve webhooks: %w", err)
	}

	if e.metrics != nil {
		e.metrics.EventsDispatchedTotal.Inc()
	}

	if len(webhooks) == 0 {
		return 0, nil
	}

	// 3. Fan out.
	for _, wh := range webhooks {
		env := payload.Build(eventType, data, wh.PayloadFields)

		e.wg.Add(1)
		go func(wh *webhook.Webhook, env payload.Envelope) {
			defer e.wg.Done()

			select {
			case e.sem <- struct{}{}:
			case <-e.baseCtx.Done():
				return
			}
			defer func() { <-e.sem }()

			e.deliver(e.baseCtx, wh, env)
		}(wh, env)
	}

	e.logger.DebugContext(ctx, "event dispatched",
		"event", eventType,
		"webhooks", len(webhooks),
	)

	return len(webhooks), nil
}

// deliver runs one orchestration to its terminal outcome and applies the
// health policy to the result.
func (e *Engine) deliver(ctx context.Context, wh *webhook.Webhook, env payload.Envelope) {
	var endSpan func(*delivery.Delivery)
	if e.tracer != nil {
		spanCtx, span := e.tracer.StartDeliverySpan(ctx, wh.ID.String(), env.Event)
		ctx = spanCtx
		endSpan = func(d *delivery.Delivery) {
			if d != nil {
				e.tracer.EndDeliverySpan(span, d.StatusCode, d.AttemptNumber, d.LatencyMs, d.Success)
			} else {
				e.tracer.EndDeliverySpan(span, 0, 0, 0, false)
			}
		}
	}

	if e.metrics != nil {
		e.metrics.InFlightDeliveries.Inc()
		defer e.metrics.InFlightDeliveries.Dec()
	}

	d, err := e.orchestrator.Process(ctx, wh, env)
	if endSpan != nil {
		endSpan(d)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "delivery orchestration aborted",
			"webhook_id", wh.ID, "event", env.Event, "error", err)
		if d == nil {
			return
		}
	}

	if e.metrics != nil {
		status := "failed"
		if d.Success {
			status = "success"
		}
		e.metrics.RecordDelivery(status, float64(d.LatencyMs)/1000.0)
	}

	e.applyHealthPolicy(ctx, wh, d)
}

// applyHealthPolicy records the terminal outcome and disables the webhook
// when its consecutive-failure streak crosses the threshold.
func (e *Engine) applyHealthPolicy(ctx context.Context, wh *webhook.Webhook, d *delivery.Delivery) {
	count, err := e.store.RecordOutcome(ctx, wh.ID, d.Success, time.Now().UTC())
	if err != nil {
		e.logger.ErrorContext(ctx, "record delivery outcome failed",
			"webhook_id", wh.ID, "error", err)
		return
	}

	decision := e.monitor.Check(wh.ID.String(), count)
	if !decision.ShouldDisable {
		return
	}

	if err := e.store.SetStatus(ctx, wh.ID, webhook.StatusDisabled); err != nil {
		e.logger.ErrorContext(ctx, "disable webhook failed",
			"webhook_id", wh.ID, "error", err)
		return
	}

	if e.metrics != nil {
		e.metrics.WebhooksDisabledTotal.Inc()
	}
	e.logger.WarnContext(ctx, "webhook disabled",
		"webhook_id", wh.ID,
		"failure_count", count,
		"reason", decision.Reason,
	)
}

// SendTest delivers a canned test event to one webhook, bypassing retry and
// health accounting. The response is returned to the caller for display.
func (e *Engine) SendTest(ctx context.Context, whID id.ID) (*delivery.Delivery, error) {
	wh, err := e.store.GetWebhook(ctx, whID)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(ctx, wh.OrgID) {
		return nil, ErrWebhookNotFound
	}

	env := payload.Build("spec.updated", testEventData(), wh.PayloadFields)
	env.Test = true

	return e.sender.SendTest(ctx, wh, env)
}

// testEventData is the sample document sent by SendTest.
func testEventData() map[string]any {
	return map[string]any{
		"id":   "spec_test",
		"name": "Test Specification",
		"url":  "https://app.example.com/specs/spec_test",
	}
}

// Close stops accepting dispatches and waits up to ShutdownTimeout for
// in-flight orchestrations, then cancels any that remain.
func (e *Engine) Close(ctx context.Context) error {
	e.closeOnce.Do(func() { close(e.closed) })

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(e.config.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		e.cancel()
		return nil
	case <-ctx.Done():
		e.cancel()
		return ctx.Err()
	case <-timer.C:
		e.cancel()
		return fmt.Errorf("hookline: shutdown timed out after %s", e.config.ShutdownTimeout)
	}
}

// RegisterEventType registers an event type definition in the catalog.
func (e *Engine) RegisterEventType(def catalog.Definition) {
	e.catalog.Register(def)
}

// Webhooks returns the webhook management service.
func (e *Engine) Webhooks() *webhook.Service {
	return e.webhookSvc
}

// Catalog returns the event type catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store {
	return e.store
}

// Deliveries returns delivery history for a webhook, newest first.
func (e *Engine) Deliveries(ctx context.Context, whID id.ID, opts delivery.ListOpts) ([]*delivery.Delivery, error) {
	wh, err := e.store.GetWebhook(ctx, whID)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(ctx, wh.OrgID) {
		return nil, ErrWebhookNotFound
	}
	return e.store.ListByWebhook(ctx, whID, opts)
}
