package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/backoff"
	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/log"
	libRuntime "github.com/yirassssindaba-coder/time-series-forecasting/reliable/runtime"
)

// Dispatcher polls the repository and delivers pending messages to the sink,
// one message per tick. A message failing delivery is rescheduled with
// exponential backoff until the attempt budget runs out, then dead-lettered.
// Delivery is at-least-once: the sink call happens before the processed state
// is persisted, so receivers must tolerate duplicates.
type Dispatcher struct {
	repo   Repository
	sink   Sink
	logger log.Logger
	tracer trace.Tracer
	cfg    DispatcherConfig
	now    func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	runMu    sync.Mutex
	running  bool
	cancel   context.CancelFunc
	tickWg   sync.WaitGroup

	metrics dispatcherMetrics
}

// TickResult captures one dispatch cycle.
type TickResult struct {
	MessageID uuid.UUID
	Outcome   Outcome
	Attempts  int
}

// NewDispatcher creates a dispatcher over the given repository and sink.
func NewDispatcher(
	repo Repository,
	sink Sink,
	logger log.Logger,
	tracer trace.Tracer,
	opts ...DispatcherOption,
) (*Dispatcher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	if sink == nil {
		return nil, ErrSinkRequired
	}

	if logger == nil {
		logger = log.NewNop()
	}

	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("reliable.noop")
	}

	dispatcher := &Dispatcher{
		repo:   repo,
		sink:   sink,
		logger: logger,
		tracer: tracer,
		cfg:    DefaultDispatcherConfig(),
		now:    func() time.Time { return time.Now().UTC() },
		stop:   make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(dispatcher)
		}
	}

	dispatcher.cfg.normalize()

	metrics, err := newDispatcherMetrics(dispatcher.cfg.MeterProvider)
	if err != nil {
		return nil, fmt.Errorf("init outbox metrics: %w", err)
	}

	dispatcher.metrics = metrics

	return dispatcher, nil
}

// Run starts the polling loop and blocks until Stop is called or ctx is
// cancelled. Shutdown is observed only between ticks; an in-flight delivery
// finishes naturally.
func (dispatcher *Dispatcher) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	runCtx, cancel := context.WithCancel(ctx)
	if !dispatcher.registerRun(cancel) {
		cancel()

		return ErrDispatcherRunning
	}

	defer dispatcher.clearRun()

	dispatcher.logger.Log(runCtx, log.LevelInfo, "outbox dispatcher started",
		log.String("tick_interval", dispatcher.cfg.TickInterval.String()),
		log.Int("max_attempts", dispatcher.cfg.MaxAttempts),
	)
	defer dispatcher.logger.Log(context.Background(), log.LevelInfo, "outbox dispatcher stopped")

	ticker := time.NewTicker(dispatcher.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-dispatcher.stop:
			return nil
		case <-runCtx.Done():
			return nil
		case <-ticker.C:
			select {
			case <-dispatcher.stop:
				return nil
			case <-runCtx.Done():
				return nil
			default:
			}

			dispatcher.tick(runCtx)
		}
	}
}

// tick runs one dispatch cycle with panic containment: a panicking cycle is
// logged and the loop proceeds to the next tick.
func (dispatcher *Dispatcher) tick(ctx context.Context) {
	dispatcher.tickWg.Add(1)
	defer dispatcher.tickWg.Done()

	tickCtx, span := dispatcher.tracer.Start(ctx, "outbox.dispatcher.tick")
	defer span.End()
	defer libRuntime.RecoverAndLog(tickCtx, dispatcher.logger, "outbox", "dispatcher_tick")

	result := dispatcher.DispatchOnce(tickCtx)
	span.SetAttributes(
		attribute.String("outbox.tick.outcome", result.Outcome.String()),
		attribute.Int("outbox.tick.attempts", result.Attempts),
	)
}

// Stop signals the loop to exit. Safe to call more than once.
func (dispatcher *Dispatcher) Stop() {
	if dispatcher == nil {
		return
	}

	dispatcher.stopOnce.Do(func() {
		dispatcher.runMu.Lock()
		cancel := dispatcher.cancel
		dispatcher.runMu.Unlock()

		if cancel != nil {
			cancel()
		}

		close(dispatcher.stop)
	})
}

// Shutdown stops the loop and waits for the in-flight tick to complete, or
// for ctx to expire.
func (dispatcher *Dispatcher) Shutdown(ctx context.Context) error {
	if dispatcher == nil {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	dispatcher.Stop()

	done := make(chan struct{})

	libRuntime.SafeGo(dispatcher.logger, "outbox.dispatcher_shutdown_wait", func() {
		dispatcher.tickWg.Wait()
		close(done)
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
}

// DispatchOnce claims and processes at most one ready message. All errors are
// handled internally; the caller only observes the outcome. Exposed so tests
// and manual drains can drive cycles without the ticker.
func (dispatcher *Dispatcher) DispatchOnce(ctx context.Context) TickResult {
	if ctx == nil {
		ctx = context.Background()
	}

	start := dispatcher.now()

	dispatcher.recordQueueDepth(ctx)

	message, err := dispatcher.repo.ClaimNextReady(ctx, start)
	if err != nil {
		if !errors.Is(err, ErrNoReadyMessages) {
			dispatcher.logger.Log(ctx, log.LevelError, "failed to claim outbox message",
				log.Err(err),
			)
		}

		return TickResult{Outcome: OutcomeNone}
	}

	result := dispatcher.deliver(ctx, message)

	dispatcher.metrics.tickLatency.Record(ctx, time.Since(start).Seconds())

	return result
}

func (dispatcher *Dispatcher) deliver(ctx context.Context, message *Message) TickResult {
	now := dispatcher.now()

	deliveryErr := dispatcher.sink.Deliver(ctx, message)
	if deliveryErr == nil {
		// At-least-once: the sink accepted the message before this state
		// write. If it fails, the message is redelivered on a later tick.
		if err := dispatcher.repo.MarkProcessed(ctx, message.ID, dispatcher.now()); err != nil {
			dispatcher.logger.Log(ctx, log.LevelError,
				"outbox message delivered but failed to persist processed state; message may be redelivered",
				log.String("message_id", message.ID.String()),
				log.Err(err),
			)
		}

		dispatcher.metrics.delivered.Add(ctx, 1)

		return TickResult{MessageID: message.ID, Outcome: OutcomeDelivered, Attempts: message.Attempts}
	}

	attempts := message.Attempts + 1
	errText := sanitizeErrorForStorage(deliveryErr)

	dispatcher.metrics.failed.Add(ctx, 1)

	if attempts >= dispatcher.cfg.MaxAttempts {
		if err := dispatcher.repo.MoveToDeadLetter(ctx, message, errText, dispatcher.now()); err != nil {
			dispatcher.logger.Log(ctx, log.LevelError, "failed to dead-letter outbox message",
				log.String("message_id", message.ID.String()),
				log.Err(err),
			)

			return TickResult{MessageID: message.ID, Outcome: OutcomeRetried, Attempts: attempts}
		}

		dispatcher.metrics.deadLettered.Add(ctx, 1)
		dispatcher.logger.Log(ctx, log.LevelWarn, "outbox message dead-lettered",
			log.String("message_id", message.ID.String()),
			log.String("event_type", message.Type),
			log.Int("attempts", attempts),
			log.String("delivery_error", errText),
		)

		return TickResult{MessageID: message.ID, Outcome: OutcomeDeadLettered, Attempts: attempts}
	}

	nextAttemptAt := now.Add(backoff.Exponential(dispatcher.cfg.BackoffBase, attempts))

	if err := dispatcher.repo.Reschedule(ctx, message.ID, attempts, nextAttemptAt, errText); err != nil {
		dispatcher.logger.Log(ctx, log.LevelError, "failed to reschedule outbox message",
			log.String("message_id", message.ID.String()),
			log.Err(err),
		)
	}

	dispatcher.logger.Log(ctx, log.LevelDebug, "outbox delivery failed; rescheduled",
		log.String("message_id", message.ID.String()),
		log.Int("attempts", attempts),
		log.String("next_attempt_at", nextAttemptAt.Format(time.RFC3339)),
	)

	return TickResult{MessageID: message.ID, Outcome: OutcomeRetried, Attempts: attempts}
}

func (dispatcher *Dispatcher) recordQueueDepth(ctx context.Context) {
	pending, err := dispatcher.repo.CountPending(ctx)
	if err != nil {
		return
	}

	dispatcher.metrics.queueDepth.Record(ctx, pending)
}

func (dispatcher *Dispatcher) registerRun(cancel context.CancelFunc) bool {
	dispatcher.runMu.Lock()
	defer dispatcher.runMu.Unlock()

	if dispatcher.running {
		return false
	}

	if dispatcher.stop == nil || isClosed(dispatcher.stop) {
		dispatcher.stop = make(chan struct{})
		dispatcher.stopOnce = sync.Once{}
	}

	dispatcher.running = true
	dispatcher.cancel = cancel

	return true
}

func (dispatcher *Dispatcher) clearRun() {
	dispatcher.runMu.Lock()
	defer dispatcher.runMu.Unlock()

	dispatcher.running = false
	dispatcher.cancel = nil
}

func isClosed(signal <-chan struct{}) bool {
	select {
	case <-signal:
		return true
	default:
		return false
	}
}
