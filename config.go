package hookline

import "time"

// Config holds the delivery policy for an Engine.
//
// MaxRetryAttempts, RetryDelays, and FailureThreshold are part of the
// observable contract: retry timing and automatic disablement depend on them.
// They are plain struct fields rather than package globals so tests can
// override them without global mutation.
type Config struct {
	// Concurrency is the maximum number of delivery orchestrations in flight.
	Concurrency int

	// RequestTimeout is the hard HTTP timeout per delivery attempt.
	RequestTimeout time.Duration

	// MaxRetryAttempts is the attempt ceiling per orchestration (1-based;
	// the first attempt counts).
	MaxRetryAttempts int

	// RetryDelays is the ascending backoff table. The delay before attempt
	// n+1 is RetryDelays[n-1]. Its length must be at least MaxRetryAttempts-1;
	// the retry scheduler refuses to retry past the end of the table.
	RetryDelays []time.Duration

	// FailureThreshold is the consecutive-failure count at which the health
	// monitor recommends disabling a webhook.
	FailureThreshold int

	// ShutdownTimeout is the maximum time Close waits for in-flight
	// orchestrations.
	ShutdownTimeout time.Duration
}

// DefaultRetryDelays is the default backoff table.
var DefaultRetryDelays = []time.Duration{
	5 * time.Second,
	30 * time.Second,
	2 * time.Minute,
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:      10,
		RequestTimeout:   30 * time.Second,
		MaxRetryAttempts: 3,
		RetryDelays:      DefaultRetryDelays,
		FailureThreshold: 5,
		ShutdownTimeout:  30 * time.Second,
	}
}
