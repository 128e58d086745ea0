package redis

// Key prefixes for primary entity storage.
const (
	prefixWebhook  = "hookline:wh:"
	prefixDelivery = "hookline:del:"
)

// Key prefixes for counters.
const (
	prefixFailures = "hookline:fail:" // + webhook ID, consecutive-failure count
)

// Key prefixes for sorted set indexes.
const (
	zWebhookOrg = "hookline:z:wh:org:" // + org ID
	zWebhookAll = "hookline:z:wh:all"
	zDeliveryWH = "hookline:z:del:wh:" // + webhook ID
)

// Key prefixes for set indexes.
const (
	sWebhookActive = "hookline:s:wh:active"
)

// entityKey returns the primary key for an entity.
func entityKey(prefix, id string) string {
	return prefix + id
}

// failureKey returns the consecutive-failure counter key for a webhook.
func failureKey(whID string) string {
	return prefixFailures + whID
}
