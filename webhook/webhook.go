package webhook

import (
	"time"

	"github.com/spectree/hookline/id"
	"github.com/spectree/hookline/internal/entity"
)

// Status is the lifecycle state of a webhook registration.
type Status string

const (
	// StatusActive means the webhook receives deliveries.
	StatusActive Status = "active"

	// StatusPaused means delivery is suspended by the owner.
	StatusPaused Status = "paused"

	// StatusDisabled means delivery was shut off by the health monitor.
	StatusDisabled Status = "disabled"
)

// Webhook represents a subscriber registration: where to deliver, what to
// deliver, and how healthy recent deliveries have been.
type Webhook struct {
	entity.Entity

	// ID is the unique TypeID for this webhook.
	ID id.ID `json:"id"`

	// OrgID identifies the organization that owns this webhook.
	OrgID string `json:"org_id"`

	// URL is the delivery destination. Always a well-formed http(s) URL.
	URL string `json:"url"`

	// Description is a human-readable description of this webhook.
	Description string `json:"description,omitempty"`

	// Secret is the HMAC signing key for this webhook. Never serialized.
	Secret string `json:"-"`

	// Events are subscription patterns (exact names or "spec.*" globs).
	Events []string `json:"events"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// Headers are custom HTTP headers attached to each delivery. They are
	// applied after the generated headers and may override them.
	Headers map[string]string `json:"headers,omitempty"`

	// PayloadFields is an optional allow-list of top-level data fields to
	// include in delivered payloads. Empty means deliver everything.
	PayloadFields []string `json:"payload_fields,omitempty"`

	// FailureCount is the number of consecutive failed deliveries.
	FailureCount int `json:"failure_count"`

	// LastDeliveryAt is when the most recent delivery attempt finished.
	LastDeliveryAt *time.Time `json:"last_delivery_at,omitempty"`

	// LastDeliveryStatus is "success" or "failed" for the most recent delivery.
	LastDeliveryStatus string `json:"last_delivery_status,omitempty"`
}

// Active reports whether the webhook should receive deliveries.
func (w *Webhook) Active() bool {
	return w.Status == StatusActive
}

// ListOpts configures filtering and pagination for webhook listing.
type ListOpts struct {
	Offset int
	Limit  int
	Status *Status
}
