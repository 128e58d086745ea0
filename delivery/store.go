package delivery

import (
	"context"

	"github.com/spectree/hookline/id"
)

// Store defines the persistence contract for delivery history.
//
// History writes are a best-effort side channel: the orchestrator's primary
// contract is the returned record, and append failures are logged, never
// propagated.
type Store interface {
	// AppendDelivery persists one attempt record. Records are never updated.
	AppendDelivery(ctx context.Context, d *Delivery) error

	// GetDelivery returns a delivery record by ID.
	GetDelivery(ctx context.Context, delID id.ID) (*Delivery, error)

	// ListByWebhook returns delivery history for a webhook, newest first.
	ListByWebhook(ctx context.Context, whID id.ID, opts ListOpts) ([]*Delivery, error)
}
