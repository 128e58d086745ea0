package webhook

import (
	"context"
	"time"

	"github.com/spectree/hookline/id"
)

// Store defines the persistence contract for the webhook registry.
//
// The registry lives outside the delivery core (content store, Redis, or an
// in-memory map in tests); the core only reaches it through this interface.
type Store interface {
	// CreateWebhook persists a new webhook.
	CreateWebhook(ctx context.Context, wh *Webhook) error

	// GetWebhook returns a webhook by ID.
	GetWebhook(ctx context.Context, whID id.ID) (*Webhook, error)

	// UpdateWebhook modifies an existing webhook.
	UpdateWebhook(ctx context.Context, wh *Webhook) error

	// DeleteWebhook removes a webhook.
	DeleteWebhook(ctx context.Context, whID id.ID) error

	// ListWebhooks returns webhooks for an org, optionally filtered.
	ListWebhooks(ctx context.Context, orgID string, opts ListOpts) ([]*Webhook, error)

	// Resolve finds all active webhooks subscribed to an event type.
	// This is the hot path — called on every Engine.Dispatch.
	Resolve(ctx context.Context, eventType string) ([]*Webhook, error)

	// SetStatus changes a webhook's lifecycle state without deleting it.
	SetStatus(ctx context.Context, whID id.ID, status Status) error

	// RecordOutcome updates the rolling health counters after a terminal
	// delivery outcome: success resets the consecutive-failure count,
	// failure increments it. Returns the updated count.
	//
	// Concurrent orchestrations for the same webhook race on this counter;
	// implementations must make the update atomic (mutex, HINCRBY, or an
	// optimistic-concurrency write upstream).
	RecordOutcome(ctx context.Context, whID id.ID, success bool, at time.Time) (int, error)
}
