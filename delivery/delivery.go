package delivery

import (
	"crypto/rand"
	"strconv"
	"time"

	"github.com/spectree/hookline/id"
	"github.com/spectree/hookline/internal/entity"
	"github.com/spectree/hookline/payload"
)

// Delivery is the record of one delivery attempt. Records are immutable once
// created: a retry produces a new record, logically chained to the prior one
// by webhook id and event.
type Delivery struct {
	entity.Entity

	// ID is the unique TypeID for this attempt record.
	ID id.ID `json:"id"`

	// WebhookID references the target webhook.
	WebhookID id.ID `json:"webhook_id"`

	// Event is the event type name delivered.
	Event string `json:"event"`

	// Payload is the envelope that was sent.
	Payload payload.Envelope `json:"payload"`

	// StatusCode is the HTTP response status. 0 means the network call
	// itself failed (timeout, DNS, connection refused).
	StatusCode int `json:"status_code,omitempty"`

	// ResponseBody is the response text, truncated for storage. Empty when
	// the network call failed or the body could not be read.
	ResponseBody string `json:"response_body,omitempty"`

	// LatencyMs is the wall-clock latency of the attempt in milliseconds.
	LatencyMs int `json:"latency_ms"`

	// AttemptNumber is 1-based and never exceeds MaxAttempts.
	AttemptNumber int `json:"attempt_number"`

	// MaxAttempts is the configured attempt ceiling for the orchestration.
	MaxAttempts int `json:"max_attempts"`

	// NextRetryAt is when the next attempt is scheduled, nil when terminal.
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`

	// Success is true iff StatusCode is in the 200-299 range.
	Success bool `json:"success"`
}

// ListOpts configures filtering and pagination for delivery history listing.
type ListOpts struct {
	Offset  int
	Limit   int
	Success *bool
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// WireID generates the per-attempt id carried in the X-Webhook-ID header.
// Format: "whk_<base36 ms>_<random>".
func WireID() string {
	return "whk_" + strconv.FormatInt(time.Now().UnixMilli(), 36) + "_" + randBase36(8)
}

// TestWireID generates the header id for test deliveries.
// Format: "whk_test_<base36 ms>".
func TestWireID() string {
	return "whk_test_" + strconv.FormatInt(time.Now().UnixMilli(), 36)
}

func randBase36(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("hookline: failed to generate wire id: " + err.Error())
	}
	for i := range b {
		b[i] = base36[int(b[i])%len(base36)]
	}
	return string(b)
}
