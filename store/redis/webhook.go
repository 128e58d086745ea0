package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/spectree/hookline"
	"github.com/spectree/hookline/catalog"
	"github.com/spectree/hookline/id"
	"github.com/spectree/hookline/internal/entity"
	"github.com/spectree/hookline/webhook"
)

// webhookModel is the JSON representation stored in Redis.
//
// FailureCount is carried in the blob for reads, but the authoritative value
// lives in the failure counter key (see RecordOutcome).
type webhookModel struct {
	ID                 string            `json:"id"`
	OrgID              string            `json:"org_id"`
	URL                string            `json:"url"`
	Description        string            `json:"description"`
	Secret             string            `json:"secret"`
	Events             []string          `json:"events"`
	Status             webhook.Status    `json:"status"`
	Headers            map[string]string `json:"headers,omitempty"`
	PayloadFields      []string          `json:"payload_fields,omitempty"`
	FailureCount       int               `json:"failure_count"`
	LastDeliveryAt     *time.Time        `json:"last_delivery_at,omitempty"`
	LastDeliveryStatus string            `json:"last_delivery_status,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func toWebhookModel(wh *webhook.Webhook) *webhookModel {
	return &webhookModel{
		ID:                 wh.ID.String(),
		OrgID:              wh.OrgID,
		URL:                wh.URL,
		Description:        wh.Description,
		Secret:             wh.Secret,
		Events:             wh.Events,
		Status:             wh.Status,
		Headers:            wh.Headers,
		PayloadFields:      wh.PayloadFields,
		FailureCount:       wh.FailureCount,
		LastDeliveryAt:     wh.LastDeliveryAt,
		LastDeliveryStatus: wh.LastDeliveryStatus,
		CreatedAt:          wh.CreatedAt,
		UpdatedAt:          wh.UpdatedAt,
	}
}

func fromWebhookModel(m *webhookModel) (*webhook.Webhook, error) {
	whID, err := id.ParseWebhookID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook ID %q: %w", m.ID, err)
	}
	return &webhook.Webhook{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                 whID,
		OrgID:              m.OrgID,
		URL:                m.URL,
		Description:        m.Description,
		Secret:             m.Secret,
		Events:             m.Events,
		Status:             m.Status,
		Headers:            m.Headers,
		PayloadFields:      m.PayloadFields,
		FailureCount:       m.FailureCount,
		LastDeliveryAt:     m.LastDeliveryAt,
		LastDeliveryStatus: m.LastDeliveryStatus,
	}, nil
}

func (s *Store) CreateWebhook(ctx context.Context, wh *webhook.Webhook) error {
	m := toWebhookModel(wh)
	key := entityKey(prefixWebhook, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("hookline/redis: create webhook: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.ZAdd(ctx, zWebhookAll, goredis.Z{Score: scoreFromTime(m.CreatedAt), Member: m.ID})
	pipe.ZAdd(ctx, zWebhookOrg+m.OrgID, goredis.Z{Score: scoreFromTime(m.CreatedAt), Member: m.ID})
	if m.Status == webhook.StatusActive {
		pipe.SAdd(ctx, sWebhookActive, m.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("hookline/redis: create webhook indexes: %w", err)
	}
	return nil
}

func (s *Store) GetWebhook(ctx context.Context, whID id.ID) (*webhook.Webhook, error) {
	var m webhookModel
	if err := s.getEntity(ctx, entityKey(prefixWebhook, whID.String()), &m); err != nil {
		if isNotFound(err) {
			return nil, hookline.ErrWebhookNotFound
		}
		return nil, fmt.Errorf("hookline/redis: get webhook: %w", err)
	}
	return fromWebhookModel(&m)
}

func (s *Store) UpdateWebhook(ctx context.Context, wh *webhook.Webhook) error {
	key := entityKey(prefixWebhook, wh.ID.String())

	// Verify existence.
	var existing webhookModel
	if err := s.getEntity(ctx, key, &existing); err != nil {
		if isNotFound(err) {
			return hookline.ErrWebhookNotFound
		}
		return fmt.Errorf("hookline/redis: update webhook get: %w", err)
	}

	m := toWebhookModel(wh)
	m.UpdatedAt = now()

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("hookline/redis: update webhook: %w", err)
	}

	// Keep the counter key in step with the blob so a reset (e.g. resume)
	// actually clears the streak.
	if err := s.rdb.Set(ctx, failureKey(m.ID), m.FailureCount, 0).Err(); err != nil {
		return fmt.Errorf("hookline/redis: sync failure count: %w", err)
	}

	if m.Status == webhook.StatusActive {
		s.rdb.SAdd(ctx, sWebhookActive, m.ID)
	} else {
		s.rdb.SRem(ctx, sWebhookActive, m.ID)
	}
	return nil
}

func (s *Store) DeleteWebhook(ctx context.Context, whID id.ID) error {
	key := entityKey(prefixWebhook, whID.String())

	var m webhookModel
	if err := s.getEntity(ctx, key, &m); err != nil {
		if isNotFound(err) {
			return hookline.ErrWebhookNotFound
		}
		return fmt.Errorf("hookline/redis: delete webhook get: %w", err)
	}

	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("hookline/redis: delete webhook: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.ZRem(ctx, zWebhookAll, m.ID)
	pipe.ZRem(ctx, zWebhookOrg+m.OrgID, m.ID)
	pipe.SRem(ctx, sWebhookActive, m.ID)
	pipe.Del(ctx, failureKey(m.ID))
	pipe.Del(ctx, zDeliveryWH+m.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("hookline/redis: delete webhook indexes: %w", err)
	}
	return nil
}

func (s *Store) ListWebhooks(ctx context.Context, orgID string, opts webhook.ListOpts) ([]*webhook.Webhook, error) {
	indexKey := zWebhookAll
	if orgID != "" {
		indexKey = zWebhookOrg + orgID
	}
	ids, err := s.rdb.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("hookline/redis: list webhooks: %w", err)
	}

	result := make([]*webhook.Webhook, 0, len(ids))
	for _, entryID := range ids {
		var m webhookModel
		if err := s.getEntity(ctx, entityKey(prefixWebhook, entryID), &m); err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		if opts.Status != nil && m.Status != *opts.Status {
			continue
		}
		wh, err := fromWebhookModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, wh)
	}

	return applyPagination(result, opts.Offset, opts.Limit), nil
}

func (s *Store) Resolve(ctx context.Context, eventType string) ([]*webhook.Webhook, error) {
	ids, err := s.rdb.SMembers(ctx, sWebhookActive).Result()
	if err != nil {
		return nil, fmt.Errorf("hookline/redis: resolve: %w", err)
	}

	var result []*webhook.Webhook
	for _, entryID := range ids {
		var m webhookModel
		if err := s.getEntity(ctx, entityKey(prefixWebhook, entryID), &m); err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		if !catalog.MatchAny(m.Events, eventType) {
			continue
		}
		wh, err := fromWebhookModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, wh)
	}
	return result, nil
}

func (s *Store) SetStatus(ctx context.Context, whID id.ID, status webhook.Status) error {
	key := entityKey(prefixWebhook, whID.String())

	var m webhookModel
	if err := s.getEntity(ctx, key, &m); err != nil {
		if isNotFound(err) {
			return hookline.ErrWebhookNotFound
		}
		return fmt.Errorf("hookline/redis: set status get: %w", err)
	}

	m.Status = status
	m.UpdatedAt = now()

	if err := s.setEntity(ctx, key, &m); err != nil {
		return fmt.Errorf("hookline/redis: set status: %w", err)
	}

	if status == webhook.StatusActive {
		s.rdb.SAdd(ctx, sWebhookActive, m.ID)
	} else {
		s.rdb.SRem(ctx, sWebhookActive, m.ID)
	}
	return nil
}

// RecordOutcome atomically updates the consecutive-failure counter via
// INCR/SET on a dedicated key, then mirrors the result into the webhook blob
// so reads see it without an extra round trip.
func (s *Store) RecordOutcome(ctx context.Context, whID id.ID, success bool, at time.Time) (int, error) {
	key := entityKey(prefixWebhook, whID.String())

	var m webhookModel
	if err := s.getEntity(ctx, key, &m); err != nil {
		if isNotFound(err) {
			return 0, hookline.ErrWebhookNotFound
		}
		return 0, fmt.Errorf("hookline/redis: record outcome get: %w", err)
	}

	var count int
	if success {
		if err := s.rdb.Set(ctx, failureKey(m.ID), 0, 0).Err(); err != nil {
			return 0, fmt.Errorf("hookline/redis: reset failure count: %w", err)
		}
		m.LastDeliveryStatus = "success"
	} else {
		n, err := s.rdb.Incr(ctx, failureKey(m.ID)).Result()
		if err != nil {
			return 0, fmt.Errorf("hookline/redis: increment failure count: %w", err)
		}
		count = int(n)
		m.LastDeliveryStatus = "failed"
	}

	m.FailureCount = count
	m.LastDeliveryAt = &at
	m.UpdatedAt = now()

	if err := s.setEntity(ctx, key, &m); err != nil {
		return 0, fmt.Errorf("hookline/redis: record outcome: %w", err)
	}
	return count, nil
}
