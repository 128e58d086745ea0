// Package memory provides an in-memory Store implementation for unit testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spectree/hookline"
	"github.com/spectree/hookline/catalog"
	"github.com/spectree/hookline/delivery"
	"github.com/spectree/hookline/id"
	hooklinestore "github.com/spectree/hookline/store"
	"github.com/spectree/hookline/webhook"
)

// compile-time interface check.
var _ hooklinestore.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store for testing.
type Store struct {
	mu sync.RWMutex

	webhooks   map[string]*webhook.Webhook   // keyed by ID string
	deliveries map[string]*delivery.Delivery // keyed by ID string

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		webhooks:   make(map[string]*webhook.Webhook),
		deliveries: make(map[string]*delivery.Delivery),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Ping is a no-op for the in-memory store.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return hookline.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// webhook.Store
// ──────────────────────────────────────────────────

// CreateWebhook persists a new webhook.
func (s *Store) CreateWebhook(_ context.Context, wh *webhook.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.webhooks[wh.ID.String()] = wh
	return nil
}

// GetWebhook returns a copy of the webhook by ID.
func (s *Store) GetWebhook(_ context.Context, whID id.ID) (*webhook.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wh, ok := s.webhooks[whID.String()]
	if !ok {
		return nil, hookline.ErrWebhookNotFound
	}
	return copyWebhook(wh), nil
}

// UpdateWebhook modifies an existing webhook.
func (s *Store) UpdateWebhook(_ context.Context, wh *webhook.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.webhooks[wh.ID.String()]; !ok {
		return hookline.ErrWebhookNotFound
	}
	wh.UpdatedAt = time.Now().UTC()
	s.webhooks[wh.ID.String()] = copyWebhook(wh)
	return nil
}

// DeleteWebhook removes a webhook and its delivery history.
func (s *Store) DeleteWebhook(_ context.Context, whID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.webhooks[whID.String()]; !ok {
		return hookline.ErrWebhookNotFound
	}
	delete(s.webhooks, whID.String())

	for k, d := range s.deliveries {
		if d.WebhookID.String() == whID.String() {
			delete(s.deliveries, k)
		}
	}
	return nil
}

// ListWebhooks returns webhooks for an org, optionally filtered.
func (s *Store) ListWebhooks(_ context.Context, orgID string, opts webhook.ListOpts) ([]*webhook.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*webhook.Webhook, 0, len(s.webhooks))
	for _, wh := range s.webhooks {
		if orgID != "" && wh.OrgID != orgID {
			continue
		}
		if opts.Status != nil && wh.Status != *opts.Status {
			continue
		}
		result = append(result, copyWebhook(wh))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// Resolve finds all active webhooks subscribed to an event type.
func (s *Store) Resolve(_ context.Context, eventType string) ([]*webhook.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*webhook.Webhook
	for _, wh := range s.webhooks {
		if !wh.Active() {
			continue
		}
		if catalog.MatchAny(wh.Events, eventType) {
			result = append(result, copyWebhook(wh))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// SetStatus changes a webhook's lifecycle state.
func (s *Store) SetStatus(_ context.Context, whID id.ID, status webhook.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wh, ok := s.webhooks[whID.String()]
	if !ok {
		return hookline.ErrWebhookNotFound
	}
	wh.Status = status
	wh.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordOutcome updates the rolling health counters under the store lock,
// so concurrent orchestrations never lose an increment.
func (s *Store) RecordOutcome(_ context.Context, whID id.ID, success bool, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wh, ok := s.webhooks[whID.String()]
	if !ok {
		return 0, hookline.ErrWebhookNotFound
	}

	if success {
		wh.FailureCount = 0
		wh.LastDeliveryStatus = "success"
	} else {
		wh.FailureCount++
		wh.LastDeliveryStatus = "failed"
	}
	wh.LastDeliveryAt = &at
	wh.UpdatedAt = time.Now().UTC()
	return wh.FailureCount, nil
}

// ──────────────────────────────────────────────────
// delivery.Store
// ──────────────────────────────────────────────────

// AppendDelivery persists one attempt record.
func (s *Store) AppendDelivery(_ context.Context, d *delivery.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deliveries[d.ID.String()] = copyDelivery(d)
	return nil
}

// GetDelivery returns a copy of the delivery record by ID.
func (s *Store) GetDelivery(_ context.Context, delID id.ID) (*delivery.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deliveries[delID.String()]
	if !ok {
		return nil, hookline.ErrDeliveryNotFound
	}
	return copyDelivery(d), nil
}

// ListByWebhook returns delivery history for a webhook, newest first.
func (s *Store) ListByWebhook(_ context.Context, whID id.ID, opts delivery.ListOpts) ([]*delivery.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*delivery.Delivery, 0, len(s.deliveries))
	for _, d := range s.deliveries {
		if d.WebhookID.String() != whID.String() {
			continue
		}
		if opts.Success != nil && d.Success != *opts.Success {
			continue
		}
		result = append(result, copyDelivery(d))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// copyWebhook returns a shallow copy of the webhook.
func copyWebhook(wh *webhook.Webhook) *webhook.Webhook {
	cp := *wh
	return &cp
}

// copyDelivery returns a shallow copy of the delivery.
func copyDelivery(d *delivery.Delivery) *delivery.Delivery {
	cp := *d
	return &cp
}

func applyPagination[T any](items []*T, offset, limit int) []*T {
	if offset > 0 && offset < len(items) {
		items = items[offset:]
	} else if offset >= len(items) && offset > 0 {
		return nil
	}

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
