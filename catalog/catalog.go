// Package catalog holds the registry of webhook event types.
//
// Event types are registered at boot (the Spec Tree backend has a fixed
// vocabulary: spec.created, spec.updated, spec.deleted, node.completed, ...)
// and looked up on every dispatch to reject unknown types and validate
// payloads against an optional JSON Schema.
package catalog

import (
	"encoding/json"
	"sort"
	"sync"
)

// Definition is the canonical description of a webhook event type.
type Definition struct {
	// Name is the dot-separated event type name.
	// Convention: "<resource>.<action>" — e.g. "spec.updated", "node.completed".
	Name string `json:"name"`

	// Description is a human-readable explanation of when this event fires.
	Description string `json:"description"`

	// Schema is an optional JSON Schema describing the payload shape.
	// When set, Engine.Dispatch validates the event data against it.
	Schema json.RawMessage `json:"schema,omitempty"`

	// Example is an optional example payload for documentation and testing.
	Example json.RawMessage `json:"example,omitempty"`
}

// Catalog is an in-memory registry of event type definitions.
type Catalog struct {
	mu    sync.RWMutex
	types map[string]Definition
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		types: make(map[string]Definition),
	}
}

// Register adds or replaces an event type definition (upsert by name).
func (c *Catalog) Register(def Definition) {
	c.mu.Lock()
	c.types[def.Name] = def
	c.mu.Unlock()
}

// Get returns the definition for an event type name.
func (c *Catalog) Get(name string) (Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.types[name]
	return def, ok
}

// Len returns the number of registered event types.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}

// List returns all registered definitions sorted by name.
func (c *Catalog) List() []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	defs := make([]Definition, 0, len(c.types))
	for _, def := range c.types {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
