// Package hookline provides a signed, retried webhook delivery engine for Go.
//
// Hookline is a library — not a service. Import it into your application to
// fan events out to subscriber endpoints with HMAC-SHA256 signatures,
// fixed-schedule retries, per-attempt delivery records, and automatic
// disablement of persistently failing webhooks.
//
// Key features:
//   - HMAC-SHA256 signature on every delivery, verifiable by the receiver
//   - Sequential retries with a fixed ascending backoff schedule
//   - Immutable per-attempt delivery records for auditing
//   - Consecutive-failure tracking with threshold-based auto-disable
//   - Optional event catalog with JSON Schema payload validation
//   - Composable store pattern with multiple backends (REST, Redis, Memory)
//
// Quick start:
//
//	e, err := hookline.New(
//	    hookline.WithStore(memoryStore),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	e.Webhooks().Register(ctx, webhook.Input{
//	    OrgID:  "org_123",
//	    URL:    "https://example.com/hooks",
//	    Events: []string{"spec.*"},
//	})
//
//	e.Dispatch(ctx, "spec.updated", map[string]any{
//	    "id":   "spec_01h...",
//	    "name": "Payments API",
//	})
package hookline
