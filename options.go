package hookline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/spectree/hookline/catalog"
	"github.com/spectree/hookline/delivery"
	"github.com/spectree/hookline/observability"
	"github.com/spectree/hookline/store"
	"github.com/spectree/hookline/webhook"
)

// Engine is the root webhook delivery engine.
type Engine struct {
	config       Config
	store        store.Store
	catalog      *catalog.Catalog
	validator    *catalog.Validator
	webhookSvc   *webhook.Service
	monitor      *webhook.Monitor
	sender       *delivery.Sender
	orchestrator *delivery.Orchestrator
	metrics      *observability.Metrics
	tracer       *observability.Tracer
	logger       *slog.Logger
	onAttempt    func(*delivery.Delivery)

	sem       chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// baseCtx outlives any Dispatch caller's context so in-flight retries
	// are not torn down by request-scoped cancellation. Close cancels it
	// when the shutdown grace period runs out.
	baseCtx context.Context
	cancel  context.CancelFunc
}

// Option configures an Engine instance.
type Option func(*Engine) error

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.store == nil {
		return nil, ErrNoStore
	}
	e.wireServices()
	return e, nil
}

// WithStore sets the persistence backend for the Engine instance.
func WithStore(s store.Store) Option {
	return func(e *Engine) error {
		e.store = s
		return nil
	}
}

// WithLogger sets the structured logger for the Engine instance.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithConcurrency sets the maximum number of delivery orchestrations in flight.
func WithConcurrency(n int) Option {
	return func(e *Engine) error {
		e.config.Concurrency = n
		return nil
	}
}

// WithRequestTimeout sets the HTTP timeout per delivery attempt.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) error {
		e.config.RequestTimeout = d
		return nil
	}
}

// WithMaxRetryAttempts sets the attempt ceiling per orchestration.
func WithMaxRetryAttempts(n int) Option {
	return func(e *Engine) error {
		e.config.MaxRetryAttempts = n
		return nil
	}
}

// WithRetryDelays sets the backoff intervals between retry attempts.
func WithRetryDelays(delays []time.Duration) Option {
	return func(e *Engine) error {
		e.config.RetryDelays = delays
		return nil
	}
}

// WithFailureThreshold sets the consecutive-failure count at which webhooks
// are disabled automatically.
func WithFailureThreshold(n int) Option {
	return func(e *Engine) error {
		e.config.FailureThreshold = n
		return nil
	}
}

// WithShutdownTimeout sets the maximum time Close waits for in-flight
// orchestrations.
func WithShutdownTimeout(d time.Duration) Option {
	return func(e *Engine) error {
		e.config.ShutdownTimeout = d
		return nil
	}
}

// WithMetrics attaches metric instruments to the Engine.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) error {
		e.metrics = m
		return nil
	}
}

// WithTracer attaches an OpenTelemetry tracer to the Engine.
func WithTracer(t *observability.Tracer) Option {
	return func(e *Engine) error {
		e.tracer = t
		return nil
	}
}

// WithOnAttempt registers an observer called for every delivery attempt
// record, including intermediate retries.
func WithOnAttempt(fn func(*delivery.Delivery)) Option {
	return func(e *Engine) error {
		e.onAttempt = fn
		return nil
	}
}
