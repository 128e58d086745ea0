package webhook

// Input is the creation/update payload for webhooks.
type Input struct {
	// OrgID identifies the organization that owns this webhook.
	OrgID string `json:"org_id"`

	// URL is the delivery destination.
	URL string `json:"url"`

	// Description is a human-readable description.
	Description string `json:"description"`

	// Secret is the HMAC signing key. Auto-generated if empty on create.
	Secret string `json:"secret"`

	// Events are subscription patterns.
	Events []string `json:"events"`

	// Headers are custom HTTP headers attached to each delivery.
	Headers map[string]string `json:"headers,omitempty"`

	// PayloadFields is an optional allow-list of top-level data fields.
	PayloadFields []string `json:"payload_fields,omitempty"`
}
