// Package payload builds the event envelope delivered to webhook subscribers.
package payload

import "time"

// timestampLayout matches ISO-8601 with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Envelope is the JSON body sent to subscriber endpoints.
type Envelope struct {
	// Event is the dot-separated event type name (e.g. "spec.updated").
	Event string `json:"event"`

	// Timestamp is the envelope construction time, ISO-8601 in UTC.
	Timestamp string `json:"timestamp"`

	// Test marks deliveries triggered by the test-delivery API.
	Test bool `json:"test,omitempty"`

	// Data is the event payload, possibly projected through a field allow-list.
	Data map[string]any `json:"data"`
}

// Build constructs the envelope for an event. When fields is non-empty, data
// is projected to the keys present in both fields and data; filter keys
// absent from data are silently skipped. When fields is empty, data is
// shallow-copied unfiltered. Build is pure apart from reading the clock.
func Build(event string, data map[string]any, fields []string) Envelope {
	return Envelope{
		Event:     event,
		Timestamp: time.Now().UTC().Format(timestampLayout),
		Data:      Project(data, fields),
	}
}

// Project returns a shallow copy of data restricted to the given field
// allow-list. An empty allow-list copies everything.
func Project(data map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		out := make(map[string]any, len(data))
		for k, v := range data {
			out[k] = v
		}
		return out
	}

	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := data[f]; ok {
			out[f] = v
		}
	}
	return out
}
