package webhook

import "fmt"

// HealthDecision is the health monitor's recommendation for a webhook.
// Applying it is the caller's job; the monitor never mutates webhook state,
// so the decision logic can be tested without a persistence dependency.
type HealthDecision struct {
	// ShouldDisable recommends shutting off delivery to this webhook.
	ShouldDisable bool

	// Reason is a human-readable explanation for audit logs. It always
	// names the webhook id.
	Reason string
}

// Monitor evaluates consecutive-failure counts against a fixed threshold.
type Monitor struct {
	threshold int
}

// NewMonitor creates a health monitor with the given failure threshold.
func NewMonitor(threshold int) *Monitor {
	return &Monitor{threshold: threshold}
}

// Check returns the disable recommendation for a webhook given its current
// consecutive-failure count.
func (m *Monitor) Check(webhookID string, failureCount int) HealthDecision {
	if failureCount >= m.threshold {
		return HealthDecision{
			ShouldDisable: true,
			Reason: fmt.Sprintf("webhook %s reached %d consecutive failures (threshold %d)",
				webhookID, failureCount, m.threshold),
		}
	}

	return HealthDecision{
		ShouldDisable: false,
		Reason: fmt.Sprintf("webhook %s healthy: %d consecutive failures, below threshold %d",
			webhookID, failureCount, m.threshold),
	}
}
