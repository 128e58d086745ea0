// Package store defines the composite Store interface for all Hookline
// persistence.
//
// Each subsystem defines its own store interface; the aggregate Store
// composes them so a backend implements everything in one place.
package store

import (
	"context"

	"github.com/spectree/hookline/delivery"
	"github.com/spectree/hookline/webhook"
)

// Store is the aggregate persistence interface.
type Store interface {
	webhook.Store
	delivery.Store

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
