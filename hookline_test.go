package hookline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/spectree/hookline"
	"github.com/spectree/hookline/catalog"
	"github.com/spectree/hookline/delivery"
	"github.com/spectree/hookline/signature"
	"github.com/spectree/hookline/store/memory"
	"github.com/spectree/hookline/webhook"
)

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func ctx() context.Context { return context.Background() }

// setup builds an engine on a memory store with fast retries and a channel
// reporting every attempt record.
func setup(t *testing.T, opts ...hookline.Option) (*hookline.Engine, *memory.Store, chan *delivery.Delivery) {
	t.Helper()

	s := memory.New()
	attempts := make(chan *delivery.Delivery, 64)

	base := []hookline.Option{
		hookline.WithStore(s),
		hookline.WithMaxRetryAttempts(3),
		hookline.WithRetryDelays([]time.Duration{5 * time.Millisecond, 10 * time.Millisecond}),
		hookline.WithOnAttempt(func(d *delivery.Delivery) { attempts <- d }),
	}
	e, err := hookline.New(append(base, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close(ctx()) })
	return e, s, attempts
}

func register(t *testing.T, e *hookline.Engine, url string, events []string) *webhook.Webhook {
	t.Helper()
	wh, err := e.Webhooks().Register(ctx(), webhook.Input{
		OrgID:  "org_1",
		URL:    url,
		Events: events,
	})
	if err != nil {
		t.Fatal(err)
	}
	return wh
}

// waitTerminal drains attempt records until one is terminal (success or no
// retry scheduled) or the deadline passes.
func waitTerminal(t *testing.T, attempts chan *delivery.Delivery) *delivery.Delivery {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case d := <-attempts:
			if d.Success || d.NextRetryAt == nil {
				return d
			}
		case <-deadline:
			t.Fatal("timed out waiting for terminal delivery")
		}
	}
}

func TestDispatchDeliversSignedEvent(t *testing.T) {
	type seen struct {
		body   []byte
		header http.Header
	}
	got := make(chan seen, 1)

	sub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- seen{body: body, header: r.Header.Clone()}
		w.WriteHeader(http.StatusOK)
	}))
	defer sub.Close()

	e, _, attempts := setup(t)
	wh := register(t, e, sub.URL, []string{"spec.updated"})

	n, err := e.Dispatch(ctx(), "spec.updated", map[string]any{"id": "spec_1", "name": "Payments"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 match, got %d", n)
	}

	d := waitTerminal(t, attempts)
	if !d.Success || d.AttemptNumber != 1 {
		t.Fatalf("terminal record: %+v", d)
	}

	s := <-got
	if !signature.Verify(s.body, wh.Secret, s.header.Get("X-Webhook-Signature")) {
		t.Fatal("signature did not verify over received body")
	}
	if s.header.Get("X-Webhook-Event") != "spec.updated" {
		t.Fatalf("event header = %q", s.header.Get("X-Webhook-Event"))
	}

	var env map[string]any
	if err := json.Unmarshal(s.body, &env); err != nil {
		t.Fatal(err)
	}
	data, _ := env["data"].(map[string]any)
	if data["name"] != "Payments" {
		t.Fatalf("payload data = %v", data)
	}
}

func TestDispatchNoSubscribers(t *testing.T) {
	e, _, _ := setup(t)

	n, err := e.Dispatch(ctx(), "spec.updated", map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected 0 matches, got %d", n)
	}
}

func TestDispatchFanout(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	sub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer sub.Close()

	e, _, attempts := setup(t)
	for i := 0; i < 5; i++ {
		register(t, e, sub.URL, []string{"spec.*"})
	}

	n, err := e.Dispatch(ctx(), "spec.updated", map[string]any{"id": "spec_1"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("expected 5 matches, got %d", n)
	}

	for i := 0; i < 5; i++ {
		waitTerminal(t, attempts)
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != 5 {
		t.Fatalf("expected 5 subscriber hits, got %d", hits)
	}
}

func TestDispatchPayloadFiltering(t *testing.T) {
	got := make(chan []byte, 1)
	sub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer sub.Close()

	e, _, attempts := setup(t)
	if _, err := e.Webhooks().Register(ctx(), webhook.Input{
		OrgID:         "org_1",
		URL:           sub.URL,
		Events:        []string{"spec.updated"},
		PayloadFields: []string{"id"},
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Dispatch(ctx(), "spec.updated", map[string]any{
		"id":     "spec_1",
		"secret": "do-not-send",
	}); err != nil {
		t.Fatal(err)
	}
	waitTerminal(t, attempts)

	var env map[string]any
	if err := json.Unmarshal(<-got, &env); err != nil {
		t.Fatal(err)
	}
	data, _ := env["data"].(map[string]any)
	if data["id"] != "spec_1" {
		t.Fatalf("expected id to pass the filter, got %v", data)
	}
	if _, leaked := data["secret"]; leaked {
		t.Fatal("filtered field leaked into payload")
	}
}

func TestDispatchRetriesUntilExhaustion(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	sub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer sub.Close()

	e, s, attempts := setup(t)
	wh := register(t, e, sub.URL, []string{"spec.updated"})

	if _, err := e.Dispatch(ctx(), "spec.updated", map[string]any{"id": "spec_1"}); err != nil {
		t.Fatal(err)
	}

	d := waitTerminal(t, attempts)
	if d.Success {
		t.Fatal("expected failure")
	}
	if d.AttemptNumber != 3 {
		t.Fatalf("expected exhaustion at attempt 3, got %d", d.AttemptNumber)
	}

	mu.Lock()
	if hits != 3 {
		t.Fatalf("expected 3 subscriber hits, got %d", hits)
	}
	mu.Unlock()

	// All three attempt records were persisted.
	waitFor(t, func() bool {
		records, _ := s.ListByWebhook(ctx(), wh.ID, delivery.ListOpts{})
		return len(records) == 3
	})
}

func TestFailureStreakDisablesWebhook(t *testing.T) {
	sub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer sub.Close()

	e, s, attempts := setup(t,
		hookline.WithMaxRetryAttempts(1),
		hookline.WithFailureThreshold(3),
	)
	wh := register(t, e, sub.URL, []string{"spec.updated"})

	// Each dispatch is one orchestration of one attempt, so three dispatches
	// cross the threshold.
	for i := 0; i < 3; i++ {
		if _, err := e.Dispatch(ctx(), "spec.updated", map[string]any{"id": "spec_1"}); err != nil {
			t.Fatal(err)
		}
		waitTerminal(t, attempts)
		// Health accounting runs after the terminal record is observed.
		waitFor(t, func() bool {
			got, _ := s.GetWebhook(ctx(), wh.ID)
			return got.FailureCount == i+1 || got.Status == webhook.StatusDisabled
		})
	}

	got, err := s.GetWebhook(ctx(), wh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != webhook.StatusDisabled {
		t.Fatalf("expected disabled, got %s (failures=%d)", got.Status, got.FailureCount)
	}

	// Disabled webhooks drop out of dispatch.
	n, err := e.Dispatch(ctx(), "spec.updated", map[string]any{"id": "spec_1"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected disabled webhook excluded, got %d matches", n)
	}
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	var mu sync.Mutex
	fail := true
	sub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		f := fail
		mu.Unlock()
		if f {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer sub.Close()

	e, s, attempts := setup(t,
		hookline.WithMaxRetryAttempts(1),
		hookline.WithFailureThreshold(5),
	)
	wh := register(t, e, sub.URL, []string{"spec.updated"})

	for i := 0; i < 2; i++ {
		e.Dispatch(ctx(), "spec.updated", map[string]any{})
		waitTerminal(t, attempts)
	}
	waitFor(t, func() bool {
		got, _ := s.GetWebhook(ctx(), wh.ID)
		return got.FailureCount == 2
	})

	mu.Lock()
	fail = false
	mu.Unlock()

	e.Dispatch(ctx(), "spec.updated", map[string]any{})
	waitTerminal(t, attempts)

	waitFor(t, func() bool {
		got, _ := s.GetWebhook(ctx(), wh.ID)
		return got.FailureCount == 0 && got.Status == webhook.StatusActive
	})
}

func TestDispatchSchemaValidation(t *testing.T) {
	e, _, _ := setup(t)

	e.RegisterEventType(catalog.Definition{
		Name: "spec.updated",
		Schema: mustJSON(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{"type": "string"},
			},
			"required": []any{"id"},
		}),
	})

	_, err := e.Dispatch(ctx(), "spec.updated", map[string]any{"other": 1})
	if !errors.Is(err, hookline.ErrPayloadValidationFailed) {
		t.Fatalf("expected ErrPayloadValidationFailed, got %v", err)
	}

	if _, err := e.Dispatch(ctx(), "spec.updated", map[string]any{"id": "spec_1"}); err != nil {
		t.Fatal(err)
	}

	// Unknown types are rejected once the catalog is populated.
	_, err = e.Dispatch(ctx(), "does.not.exist", map[string]any{})
	if !errors.Is(err, hookline.ErrEventTypeNotFound) {
		t.Fatalf("expected ErrEventTypeNotFound, got %v", err)
	}
}

func TestDispatchAfterClose(t *testing.T) {
	s := memory.New()
	e, err := hookline.New(hookline.WithStore(s))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Close(ctx()); err != nil {
		t.Fatal(err)
	}

	_, err = e.Dispatch(ctx(), "spec.updated", map[string]any{})
	if !errors.Is(err, hookline.ErrEngineClosed) {
		t.Fatalf("expected ErrEngineClosed, got %v", err)
	}
}

func TestNewRequiresStore(t *testing.T) {
	_, err := hookline.New()
	if !errors.Is(err, hookline.ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
