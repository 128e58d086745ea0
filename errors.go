package hookline

import "errors"

// Sentinel errors returned by hookline operations.
var (
	// ErrNoStore is returned when an Engine is created without a store.
	ErrNoStore = errors.New("hookline: store is required")

	// ErrWebhookNotFound is returned when a webhook cannot be found.
	ErrWebhookNotFound = errors.New("hookline: webhook not found")

	// ErrWebhookDisabled is returned when attempting to deliver to a disabled webhook.
	ErrWebhookDisabled = errors.New("hookline: webhook is disabled")

	// ErrEventTypeNotFound is returned when an event type is not registered in the catalog.
	ErrEventTypeNotFound = errors.New("hookline: event type not found")

	// ErrPayloadValidationFailed is returned when event data fails JSON Schema validation.
	ErrPayloadValidationFailed = errors.New("hookline: payload validation failed")

	// ErrDeliveryNotFound is returned when a delivery record cannot be found.
	ErrDeliveryNotFound = errors.New("hookline: delivery not found")

	// ErrStoreClosed is returned when a store operation is attempted after the store is closed.
	ErrStoreClosed = errors.New("hookline: store is closed")

	// ErrEngineClosed is returned when dispatching through an engine that has been closed.
	ErrEngineClosed = errors.New("hookline: engine is closed")
)
