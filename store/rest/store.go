// Package rest implements store.Store against the content store's HTTP API.
//
// The content store owns webhook registrations and delivery history; this
// client maps the Store interface onto its JSON endpoints. Health-counter
// updates go through a dedicated outcome endpoint so the increment happens
// server-side in one round trip.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spectree/hookline"
	"github.com/spectree/hookline/delivery"
	"github.com/spectree/hookline/id"
	hooklinestore "github.com/spectree/hookline/store"
	"github.com/spectree/hookline/webhook"
)

// compile-time interface check
var _ hooklinestore.Store = (*Store)(nil)

// Store is an HTTP client for the content store's webhook API.
type Store struct {
	baseURL string
	token   string
	client  *http.Client
}

// Option configures the REST store.
type Option func(*Store)

// WithHTTPClient overrides the HTTP client used for content-store calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.client = c }
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(s *Store) { s.token = token }
}

// New creates a REST store talking to the content store at baseURL.
func New(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks content-store reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Close is a no-op; the underlying transport is shared.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// webhook.Store
// ──────────────────────────────────────────────────

func (s *Store) CreateWebhook(ctx context.Context, wh *webhook.Webhook) error {
	return s.do(ctx, http.MethodPost, "/webhooks", toWebhookModel(wh), nil)
}

func (s *Store) GetWebhook(ctx context.Context, whID id.ID) (*webhook.Webhook, error) {
	var m webhookModel
	if err := s.do(ctx, http.MethodGet, "/webhooks/"+whID.String(), nil, &m); err != nil {
		return nil, err
	}
	return fromWebhookModel(&m)
}

func (s *Store) UpdateWebhook(ctx context.Context, wh *webhook.Webhook) error {
	return s.do(ctx, http.MethodPut, "/webhooks/"+wh.ID.String(), toWebhookModel(wh), nil)
}

func (s *Store) DeleteWebhook(ctx context.Context, whID id.ID) error {
	return s.do(ctx, http.MethodDelete, "/webhooks/"+whID.String(), nil, nil)
}

func (s *Store) ListWebhooks(ctx context.Context, orgID string, opts webhook.ListOpts) ([]*webhook.Webhook, error) {
	q := url.Values{}
	if orgID != "" {
		q.Set("org", orgID)
	}
	if opts.Status != nil {
		q.Set("status", string(*opts.Status))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var models []*webhookModel
	if err := s.do(ctx, http.MethodGet, "/webhooks?"+q.Encode(), nil, &models); err != nil {
		return nil, err
	}
	return fromWebhookModels(models)
}

func (s *Store) Resolve(ctx context.Context, eventType string) ([]*webhook.Webhook, error) {
	q := url.Values{}
	q.Set("event", eventType)
	q.Set("status", string(webhook.StatusActive))

	var models []*webhookModel
	if err := s.do(ctx, http.MethodGet, "/webhooks?"+q.Encode(), nil, &models); err != nil {
		return nil, err
	}
	return fromWebhookModels(models)
}

func (s *Store) SetStatus(ctx context.Context, whID id.ID, status webhook.Status) error {
	body := map[string]string{"status": string(status)}
	return s.do(ctx, http.MethodPut, "/webhooks/"+whID.String()+"/status", body, nil)
}

// RecordOutcome reports a terminal delivery outcome. The content store applies
// the counter update atomically and returns the resulting failure count.
func (s *Store) RecordOutcome(ctx context.Context, whID id.ID, success bool, at time.Time) (int, error) {
	body := map[string]any{
		"success":      success,
		"delivered_at": at.UTC().Format(time.RFC3339Nano),
	}
	var resp struct {
		FailureCount int `json:"failure_count"`
	}
	if err := s.do(ctx, http.MethodPost, "/webhooks/"+whID.String()+"/outcome", body, &resp); err != nil {
		return 0, err
	}
	return resp.FailureCount, nil
}

// ──────────────────────────────────────────────────
// delivery.Store
// ──────────────────────────────────────────────────

func (s *Store) AppendDelivery(ctx context.Context, d *delivery.Delivery) error {
	path := "/webhooks/" + d.WebhookID.String() + "/deliveries"
	return s.do(ctx, http.MethodPost, path, toDeliveryModel(d), nil)
}

func (s *Store) GetDelivery(ctx context.Context, delID id.ID) (*delivery.Delivery, error) {
	var m deliveryModel
	if err := s.do(ctx, http.MethodGet, "/deliveries/"+delID.String(), nil, &m); err != nil {
		return nil, err
	}
	return fromDeliveryModel(&m)
}

func (s *Store) ListByWebhook(ctx context.Context, whID id.ID, opts delivery.ListOpts) ([]*delivery.Delivery, error) {
	q := url.Values{}
	if opts.Success != nil {
		q.Set("success", strconv.FormatBool(*opts.Success))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var models []*deliveryModel
	path := "/webhooks/" + whID.String() + "/deliveries?" + q.Encode()
	if err := s.do(ctx, http.MethodGet, path, nil, &models); err != nil {
		return nil, err
	}

	result := make([]*delivery.Delivery, 0, len(models))
	for _, m := range models {
		d, err := fromDeliveryModel(m)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Transport
// ──────────────────────────────────────────────────

// do issues one request and decodes the JSON response into out (when non-nil).
// 404 responses map to the domain's not-found sentinels by path shape.
func (s *Store) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("hookline/rest: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("hookline/rest: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("hookline/rest: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return notFoundErr(path)
	case resp.StatusCode >= 400:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hookline/rest: %s %s: status %d: %s", method, path, resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("hookline/rest: decode response: %w", err)
	}
	return nil
}

func notFoundErr(path string) error {
	if strings.HasPrefix(path, "/deliveries/") {
		return hookline.ErrDeliveryNotFound
	}
	return hookline.ErrWebhookNotFound
}

func fromWebhookModels(models []*webhookModel) ([]*webhook.Webhook, error) {
	result := make([]*webhook.Webhook, 0, len(models))
	for _, m := range models {
		wh, err := fromWebhookModel(m)
		if err != nil {
			return nil, err
		}
		result = append(result, wh)
	}
	return result, nil
}
