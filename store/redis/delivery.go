package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/spectree/hookline"
	"github.com/spectree/hookline/delivery"
	"github.com/spectree/hookline/id"
	"github.com/spectree/hookline/internal/entity"
	"github.com/spectree/hookline/payload"
)

// deliveryModel is the JSON representation stored in Redis.
type deliveryModel struct {
	ID            string           `json:"id"`
	WebhookID     string           `json:"webhook_id"`
	Event         string           `json:"event"`
	Payload       payload.Envelope `json:"payload"`
	StatusCode    int              `json:"status_code,omitempty"`
	ResponseBody  string           `json:"response_body,omitempty"`
	LatencyMs     int              `json:"latency_ms"`
	AttemptNumber int              `json:"attempt_number"`
	MaxAttempts   int              `json:"max_attempts"`
	NextRetryAt   *time.Time       `json:"next_retry_at,omitempty"`
	Success       bool             `json:"success"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func toDeliveryModel(d *delivery.Delivery) *deliveryModel {
	return &deliveryModel{
		ID:            d.ID.String(),
		WebhookID:     d.WebhookID.String(),
		Event:         d.Event,
		Payload:       d.Payload,
		StatusCode:    d.StatusCode,
		ResponseBody:  d.ResponseBody,
		LatencyMs:     d.LatencyMs,
		AttemptNumber: d.AttemptNumber,
		MaxAttempts:   d.MaxAttempts,
		NextRetryAt:   d.NextRetryAt,
		Success:       d.Success,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func fromDeliveryModel(m *deliveryModel) (*delivery.Delivery, error) {
	delID, err := id.ParseDeliveryID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse delivery ID %q: %w", m.ID, err)
	}
	whID, err := id.ParseWebhookID(m.WebhookID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.WebhookID, err)
	}
	return &delivery.Delivery{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            delID,
		WebhookID:     whID,
		Event:         m.Event,
		Payload:       m.Payload,
		StatusCode:    m.StatusCode,
		ResponseBody:  m.ResponseBody,
		LatencyMs:     m.LatencyMs,
		AttemptNumber: m.AttemptNumber,
		MaxAttempts:   m.MaxAttempts,
		NextRetryAt:   m.NextRetryAt,
		Success:       m.Success,
	}, nil
}

func (s *Store) AppendDelivery(ctx context.Context, d *delivery.Delivery) error {
	m := toDeliveryModel(d)
	key := entityKey(prefixDelivery, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("hookline/redis: append delivery: %w", err)
	}

	err := s.rdb.ZAdd(ctx, zDeliveryWH+m.WebhookID, goredis.Z{
		Score:  scoreFromTime(m.CreatedAt),
		Member: m.ID,
	}).Err()
	if err != nil {
		return fmt.Errorf("hookline/redis: append delivery index: %w", err)
	}
	return nil
}

func (s *Store) GetDelivery(ctx context.Context, delID id.ID) (*delivery.Delivery, error) {
	var m deliveryModel
	if err := s.getEntity(ctx, entityKey(prefixDelivery, delID.String()), &m); err != nil {
		if isNotFound(err) {
			return nil, hookline.ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("hookline/redis: get delivery: %w", err)
	}
	return fromDeliveryModel(&m)
}

func (s *Store) ListByWebhook(ctx context.Context, whID id.ID, opts delivery.ListOpts) ([]*delivery.Delivery, error) {
	// ZRevRange gives newest first.
	ids, err := s.rdb.ZRevRange(ctx, zDeliveryWH+whID.String(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("hookline/redis: list deliveries: %w", err)
	}

	result := make([]*delivery.Delivery, 0, len(ids))
	for _, entryID := range ids {
		var m deliveryModel
		if err := s.getEntity(ctx, entityKey(prefixDelivery, entryID), &m); err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		if opts.Success != nil && m.Success != *opts.Success {
			continue
		}
		d, err := fromDeliveryModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}

	return applyPagination(result, opts.Offset, opts.Limit), nil
}
