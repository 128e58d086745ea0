package rest

import (
	"fmt"
	"time"

	"github.com/spectree/hookline/delivery"
	"github.com/spectree/hookline/id"
	"github.com/spectree/hookline/internal/entity"
	"github.com/spectree/hookline/payload"
	"github.com/spectree/hookline/webhook"
)

// webhookModel is the wire representation exchanged with the content store.
type webhookModel struct {
	ID                 string            `json:"id"`
	OrgID              string            `json:"org_id"`
	URL                string            `json:"url"`
	Description        string            `json:"description,omitempty"`
	Secret             string            `json:"secret,omitempty"`
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

// deliveryModel is the wire representation of one attempt record.
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
