package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spectree/hookline"
	"github.com/spectree/hookline/delivery"
	"github.com/spectree/hookline/id"
	"github.com/spectree/hookline/internal/entity"
	"github.com/spectree/hookline/webhook"
)

func ctx() context.Context { return context.Background() }

func newWebhook(orgID string, events ...string) *webhook.Webhook {
	return &webhook.Webhook{
		Entity: entity.New(),
		ID:     id.NewWebhookID(),
		OrgID:  orgID,
		URL:    "https://example.com/hooks",
		Secret: "whsec_test",
		Events: events,
		Status: webhook.StatusActive,
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

func TestLifecycle(t *testing.T) {
	s := New()

	if err := s.Ping(ctx()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx()); !errors.Is(err, hookline.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
}

// ──────────────────────────────────────────────────
// webhook.Store
// ──────────────────────────────────────────────────

func TestWebhookCRUD(t *testing.T) {
	s := New()
	wh := newWebhook("org_1", "spec.updated")

	if err := s.CreateWebhook(ctx(), wh); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetWebhook(ctx(), wh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.URL != wh.URL {
		t.Fatalf("got URL %q", got.URL)
	}

	// Get not found
	_, err = s.GetWebhook(ctx(), id.NewWebhookID())
	if !errors.Is(err, hookline.ErrWebhookNotFound) {
		t.Fatalf("expected ErrWebhookNotFound, got %v", err)
	}

	// Update
	got.Description = "updated"
	if err := s.UpdateWebhook(ctx(), got); err != nil {
		t.Fatal(err)
	}
	got2, _ := s.GetWebhook(ctx(), wh.ID)
	if got2.Description != "updated" {
		t.Fatalf("expected updated description, got %q", got2.Description)
	}

	// Delete
	if err := s.DeleteWebhook(ctx(), wh.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteWebhook(ctx(), wh.ID); !errors.Is(err, hookline.ErrWebhookNotFound) {
		t.Fatalf("expected ErrWebhookNotFound, got %v", err)
	}
}

func TestGetWebhookReturnsCopy(t *testing.T) {
	s := New()
	wh := newWebhook("org_1", "spec.updated")
	if err := s.CreateWebhook(ctx(), wh); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetWebhook(ctx(), wh.ID)
	got.URL = "https://mutated.example.com"

	again, _ := s.GetWebhook(ctx(), wh.ID)
	if again.URL != "https://example.com/hooks" {
		t.Fatalf("store leaked internal state: URL = %q", again.URL)
	}
}

func TestListWebhooksScopedToOrg(t *testing.T) {
	s := New()
	a := newWebhook("org_a", "spec.updated")
	b := newWebhook("org_b", "spec.updated")
	for _, wh := range []*webhook.Webhook{a, b} {
		if err := s.CreateWebhook(ctx(), wh); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.ListWebhooks(ctx(), "org_a", webhook.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("expected only org_a webhook, got %d", len(list))
	}

	paused := webhook.StatusPaused
	list, err = s.ListWebhooks(ctx(), "org_a", webhook.ListOpts{Status: &paused})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no paused webhooks, got %d", len(list))
	}
}

func TestResolve(t *testing.T) {
	s := New()

	exact := newWebhook("org_1", "spec.updated")
	glob := newWebhook("org_1", "spec.*")
	other := newWebhook("org_1", "node.created")
	paused := newWebhook("org_1", "spec.updated")
	paused.Status = webhook.StatusPaused
	disabled := newWebhook("org_1", "spec.updated")
	disabled.Status = webhook.StatusDisabled

	for _, wh := range []*webhook.Webhook{exact, glob, other, paused, disabled} {
		if err := s.CreateWebhook(ctx(), wh); err != nil {
			t.Fatal(err)
		}
	}

	matched, err := s.Resolve(ctx(), "spec.updated")
	if err != nil {
		t.Fatal(err)
	}
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matched))
	}
	for _, wh := range matched {
		if wh.ID == paused.ID || wh.ID == disabled.ID {
			t.Fatalf("resolved inactive webhook %s", wh.ID)
		}
	}
}

func TestSetStatus(t *testing.T) {
	s := New()
	wh := newWebhook("org_1", "spec.updated")
	if err := s.CreateWebhook(ctx(), wh); err != nil {
		t.Fatal(err)
	}

	if err := s.SetStatus(ctx(), wh.ID, webhook.StatusDisabled); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetWebhook(ctx(), wh.ID)
	if got.Status != webhook.StatusDisabled {
		t.Fatalf("got status %q", got.Status)
	}

	if err := s.SetStatus(ctx(), id.NewWebhookID(), webhook.StatusActive); !errors.Is(err, hookline.ErrWebhookNotFound) {
		t.Fatalf("expected ErrWebhookNotFound, got %v", err)
	}
}

func TestRecordOutcome(t *testing.T) {
	s := New()
	wh := newWebhook("org_1", "spec.updated")
	if err := s.CreateWebhook(ctx(), wh); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()

	// Failures accumulate.
	for want := 1; want <= 3; want++ {
		count, err := s.RecordOutcome(ctx(), wh.ID, false, now)
		if err != nil {
			t.Fatal(err)
		}
		if count != want {
			t.Fatalf("after %d failures count = %d", want, count)
		}
	}

	// Success resets the streak.
	count, err := s.RecordOutcome(ctx(), wh.ID, true, now)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("after success count = %d", count)
	}

	got, _ := s.GetWebhook(ctx(), wh.ID)
	if got.LastDeliveryStatus != "success" {
		t.Fatalf("got last delivery status %q", got.LastDeliveryStatus)
	}
	if got.LastDeliveryAt == nil || !got.LastDeliveryAt.Equal(now) {
		t.Fatalf("got last delivery at %v", got.LastDeliveryAt)
	}
}

func TestRecordOutcomeConcurrent(t *testing.T) {
	s := New()
	wh := newWebhook("org_1", "spec.updated")
	if err := s.CreateWebhook(ctx(), wh); err != nil {
		t.Fatal(err)
	}

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.RecordOutcome(ctx(), wh.ID, false, time.Now()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, _ := s.GetWebhook(ctx(), wh.ID)
	if got.FailureCount != n {
		t.Fatalf("expected %d failures, got %d", n, got.FailureCount)
	}
}

// ──────────────────────────────────────────────────
// delivery.Store
// ──────────────────────────────────────────────────

func TestDeliveryHistory(t *testing.T) {
	s := New()
	wh := newWebhook("org_1", "spec.updated")
	if err := s.CreateWebhook(ctx(), wh); err != nil {
		t.Fatal(err)
	}

	var first *delivery.Delivery
	for i := 1; i <= 3; i++ {
		d := &delivery.Delivery{
			Entity:        entity.New(),
			ID:            id.NewDeliveryID(),
			WebhookID:     wh.ID,
			Event:         "spec.updated",
			StatusCode:    500,
			AttemptNumber: i,
			MaxAttempts:   3,
		}
		// Separate CreatedAt so newest-first ordering is observable.
		d.CreatedAt = d.CreatedAt.Add(time.Duration(i) * time.Second)
		if first == nil {
			first = d
		}
		if err := s.AppendDelivery(ctx(), d); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetDelivery(ctx(), first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.AttemptNumber != 1 {
		t.Fatalf("got attempt %d", got.AttemptNumber)
	}

	_, err = s.GetDelivery(ctx(), id.NewDeliveryID())
	if !errors.Is(err, hookline.ErrDeliveryNotFound) {
		t.Fatalf("expected ErrDeliveryNotFound, got %v", err)
	}

	list, err := s.ListByWebhook(ctx(), wh.ID, delivery.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 records, got %d", len(list))
	}
	if list[0].AttemptNumber != 3 {
		t.Fatalf("expected newest first, got attempt %d", list[0].AttemptNumber)
	}

	// Pagination.
	list, _ = s.ListByWebhook(ctx(), wh.ID, delivery.ListOpts{Offset: 1, Limit: 1})
	if len(list) != 1 || list[0].AttemptNumber != 2 {
		t.Fatalf("pagination mismatch: %+v", list)
	}

	// Success filter.
	success := true
	list, _ = s.ListByWebhook(ctx(), wh.ID, delivery.ListOpts{Success: &success})
	if len(list) != 0 {
		t.Fatalf("expected no successful records, got %d", len(list))
	}
}

func TestDeleteWebhookDropsHistory(t *testing.T) {
	s := New()
	wh := newWebhook("org_1", "spec.updated")
	if err := s.CreateWebhook(ctx(), wh); err != nil {
		t.Fatal(err)
	}

	d := &delivery.Delivery{
		Entity:        entity.New(),
		ID:            id.NewDeliveryID(),
		WebhookID:     wh.ID,
		Event:         "spec.updated",
		AttemptNumber: 1,
		MaxAttempts:   3,
	}
	if err := s.AppendDelivery(ctx(), d); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteWebhook(ctx(), wh.ID); err != nil {
		t.Fatal(err)
	}
	list, _ := s.ListByWebhook(ctx(), wh.ID, delivery.ListOpts{})
	if len(list) != 0 {
		t.Fatalf("expected history removed, got %d records", len(list))
	}
}
