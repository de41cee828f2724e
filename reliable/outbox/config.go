package outbox

import (
	"time"

	"go.opentelemetry.io/otel/metric"
)

const (
	defaultTickInterval = 3 * time.Second
	defaultMaxAttempts  = 5
	defaultBackoffBase  = time.Second
)

// DispatcherConfig controls polling and retry behavior.
type DispatcherConfig struct {
	// TickInterval is the delay between dispatch cycles.
	TickInterval time.Duration
	// MaxAttempts is the delivery attempt budget before dead-lettering.
	MaxAttempts int
	// BackoffBase scales the retry schedule: after failure n the message
	// becomes eligible again at now + BackoffBase * 2^n.
	BackoffBase time.Duration
	// MeterProvider overrides the global meter provider when set.
	MeterProvider metric.MeterProvider
}

// DefaultDispatcherConfig returns the reference configuration: a 3 second
// tick, 5 attempts, and a 2s/4s/8s/16s backoff schedule.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		TickInterval: defaultTickInterval,
		MaxAttempts:  defaultMaxAttempts,
		BackoffBase:  defaultBackoffBase,
	}
}

func (cfg *DispatcherConfig) normalize() {
	defaults := DefaultDispatcherConfig()

	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaults.TickInterval
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}

	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaults.BackoffBase
	}
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherConfig replaces the default configuration. Zero fields fall
// back to defaults.
func WithDispatcherConfig(cfg DispatcherConfig) DispatcherOption {
	return func(dispatcher *Dispatcher) {
		dispatcher.cfg = cfg
	}
}

// WithClock overrides the dispatcher's time source. Tests use this to drive
// the backoff schedule deterministically.
func WithClock(now func() time.Time) DispatcherOption {
	return func(dispatcher *Dispatcher) {
		if now != nil {
			dispatcher.now = now
		}
	}
}
