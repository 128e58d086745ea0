package webhook

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/spectree/hookline/id"
	"github.com/spectree/hookline/internal/entity"
	"github.com/spectree/hookline/signature"
)

// Service provides webhook management operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new webhook service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Register creates a new webhook. The signing secret is generated when the
// input omits one; it is returned on the created webhook and not retrievable
// afterwards through the API.
func (svc *Service) Register(ctx context.Context, in Input) (*Webhook, error) {
	if err := validateURL(in.URL); err != nil {
		return nil, err
	}

	if in.OrgID == "" {
		return nil, &ValidationError{Field: "org_id", Message: "required"}
	}

	if len(in.Events) == 0 {
		return nil, &ValidationError{Field: "events", Message: "at least one event pattern required"}
	}

	secret := in.Secret
	if secret == "" {
		secret = signature.GenerateSecret()
	}

	wh := &Webhook{
		Entity:        entity.New(),
		ID:            id.NewWebhookID(),
		OrgID:         in.OrgID,
		URL:           in.URL,
		Description:   in.Description,
		Secret:        secret,
		Events:        in.Events,
		Status:        StatusActive,
		Headers:       in.Headers,
		PayloadFields: in.PayloadFields,
	}

	if err := svc.store.CreateWebhook(ctx, wh); err != nil {
		return nil, err
	}

	return wh, nil
}

// Get returns a webhook by ID.
func (svc *Service) Get(ctx context.Context, whID id.ID) (*Webhook, error) {
	return svc.store.GetWebhook(ctx, whID)
}

// Update modifies an existing webhook.
func (svc *Service) Update(ctx context.Context, whID id.ID, in Input) (*Webhook, error) {
	wh, err := svc.store.GetWebhook(ctx, whID)
	if err != nil {
		return nil, err
	}

	if in.URL != "" {
		if err := validateURL(in.URL); err != nil {
			return nil, err
		}
		wh.URL = in.URL
	}
	if in.Description != "" {
		wh.Description = in.Description
	}
	if len(in.Events) > 0 {
		wh.Events = in.Events
	}
	if in.Headers != nil {
		wh.Headers = in.Headers
	}
	if in.PayloadFields != nil {
		wh.PayloadFields = in.PayloadFields
	}

	if err := svc.store.UpdateWebhook(ctx, wh); err != nil {
		return nil, err
	}

	return wh, nil
}

// Delete removes a webhook.
func (svc *Service) Delete(ctx context.Context, whID id.ID) error {
	return svc.store.DeleteWebhook(ctx, whID)
}

// List returns webhooks for an org.
func (svc *Service) List(ctx context.Context, orgID string, opts ListOpts) ([]*Webhook, error) {
	return svc.store.ListWebhooks(ctx, orgID, opts)
}

// Pause suspends delivery to a webhook.
func (svc *Service) Pause(ctx context.Context, whID id.ID) error {
	return svc.store.SetStatus(ctx, whID, StatusPaused)
}

// Resume reactivates a paused or disabled webhook and clears its failure streak.
func (svc *Service) Resume(ctx context.Context, whID id.ID) error {
	wh, err := svc.store.GetWebhook(ctx, whID)
	if err != nil {
		return err
	}

	wh.Status = StatusActive
	wh.FailureCount = 0
	return svc.store.UpdateWebhook(ctx, wh)
}

// RotateSecret generates a new signing secret for a webhook.
func (svc *Service) RotateSecret(ctx context.Context, whID id.ID) (string, error) {
	wh, err := svc.store.GetWebhook(ctx, whID)
	if err != nil {
		return "", err
	}

	newSecret := signature.GenerateSecret()

	wh.Secret = newSecret
	if err := svc.store.UpdateWebhook(ctx, wh); err != nil {
		return "", err
	}

	return newSecret, nil
}

func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return &ValidationError{Field: "url", Message: "invalid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "url", Message: "missing host"}
	}
	return nil
}

// ValidationError indicates invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "webhook validation: " + e.Field + ": " + e.Message
}
