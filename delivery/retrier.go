package delivery

import "time"

// Decision is the retry scheduler's verdict for a finished attempt.
type Decision struct {
	// ShouldRetry is true when another attempt should be made.
	ShouldRetry bool

	// Delay is how long to wait before the next attempt. Zero when
	// ShouldRetry is false.
	Delay time.Duration
}

// Retrier decides whether a failed attempt is retried and with what backoff.
// It is a pure decision function over the attempt record; all valid attempt
// numbers ≥ 1 yield a decision, never an error.
type Retrier struct {
	maxAttempts int
	delays      []time.Duration
}

// NewRetrier creates a retrier with the given attempt ceiling and ascending
// backoff table. The table should have at least maxAttempts-1 entries; the
// retrier refuses to retry past the end of the table, which defends against
// a ceiling misconfigured larger than the table.
func NewRetrier(maxAttempts int, delays []time.Duration) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{maxAttempts: maxAttempts, delays: delays}
}

// MaxAttempts returns the configured attempt ceiling.
func (r *Retrier) MaxAttempts() int {
	return r.maxAttempts
}

// Schedule decides what to do after the given attempt.
func (r *Retrier) Schedule(d *Delivery) Decision {
	if d.Success {
		return Decision{}
	}

	if d.AttemptNumber >= r.maxAttempts {
		return Decision{}
	}

	idx := d.AttemptNumber - 1
	if idx < 0 || idx >= len(r.delays) {
		return Decision{}
	}

	return Decision{ShouldRetry: true, Delay: r.delays[idx]}
}
