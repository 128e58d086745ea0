package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/spectree/hookline/id"
	"github.com/spectree/hookline/internal/entity"
	"github.com/spectree/hookline/payload"
	"github.com/spectree/hookline/signature"
	"github.com/spectree/hookline/webhook"
)

// Headers generated on every delivery, in addition to the signature headers
// owned by the signature package.
const (
	// HeaderEvent carries the event type name.
	HeaderEvent = "X-Webhook-Event"

	// HeaderID carries the per-attempt wire id (see WireID).
	HeaderID = "X-Webhook-ID"
)

const maxResponseBody = 1024 // 1KB cap on response body storage

// Sender performs one HTTP delivery attempt.
type Sender struct {
	client *http.Client
	logger *slog.Logger
}

// NewSender creates a sender with the given hard per-attempt timeout.
func NewSender(timeout time.Duration, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Send delivers an envelope to a webhook and returns the attempt record.
//
// Delivery failure is not an error: network failures and non-2xx responses
// come back as a record with Success=false. The error return is reserved for
// argument-construction defects (an unserializable envelope, an unusable URL).
func (s *Sender) Send(ctx context.Context, wh *webhook.Webhook, env payload.Envelope, attemptNumber, maxAttempts int) (*Delivery, error) {
	return s.send(ctx, wh, env, attemptNumber, maxAttempts, WireID())
}

// SendTest delivers a single test envelope, using the test wire id format so
// subscribers can tell test traffic apart. Test deliveries never retry.
func (s *Sender) SendTest(ctx context.Context, wh *webhook.Webhook, env payload.Envelope) (*Delivery, error) {
	return s.send(ctx, wh, env, 1, 1, TestWireID())
}

func (s *Sender) send(ctx context.Context, wh *webhook.Webhook, env payload.Envelope, attemptNumber, maxAttempts int, wireID string) (*Delivery, error) {
	// The signature covers exactly these bytes.
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("delivery: marshal envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("delivery: create request: %w", err)
	}

	// Generated headers first, then the webhook's custom headers: on a key
	// collision the custom value wins (last write by assembly order).
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "hookline/1.0")
	req.Header.Set(signature.HeaderSignature, signature.Sign(body, wh.Secret))
	req.Header.Set(signature.HeaderTimestamp, strconv.FormatInt(time.Now().UnixMilli(), 10))
	req.Header.Set(HeaderEvent, env.Event)
	req.Header.Set(HeaderID, wireID)
	for k, v := range wh.Headers {
		req.Header.Set(k, v)
	}

	d := &Delivery{
		Entity:        entity.New(),
		ID:            id.NewDeliveryID(),
		WebhookID:     wh.ID,
		Event:         env.Event,
		Payload:       env,
		AttemptNumber: attemptNumber,
		MaxAttempts:   maxAttempts,
	}

	start := time.Now()
	resp, err := s.client.Do(req) //nolint:gosec // G704: destination URL is the caller-registered webhook URL
	d.LatencyMs = int(time.Since(start).Milliseconds())

	if err != nil {
		// Timeout, DNS, connection refused: an expected operational outcome,
		// logged rather than escalated.
		s.logger.WarnContext(ctx, "webhook delivery failed",
			"webhook_id", wh.ID, "event", env.Event,
			"attempt", attemptNumber, "error", err)
		return d, nil
	}
	defer resp.Body.Close()

	d.StatusCode = resp.StatusCode
	d.Success = resp.StatusCode >= 200 && resp.StatusCode < 300

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if readErr != nil {
		// Body-read failure degrades to an empty body; the status code
		// already determined success.
		s.logger.DebugContext(ctx, "webhook response body unreadable",
			"webhook_id", wh.ID, "error", readErr)
	} else {
		d.ResponseBody = string(respBody)
	}

	if !d.Success {
		s.logger.WarnContext(ctx, "webhook delivery failed",
			"webhook_id", wh.ID, "event", env.Event,
			"attempt", attemptNumber, "status", d.StatusCode)
	}

	return d, nil
}
