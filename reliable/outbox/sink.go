package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/log"
)

// Sink delivers one message to the outside world. A nil error means the
// message was accepted; any error counts as a failed attempt.
type Sink interface {
	Deliver(ctx context.Context, message *Message) error
}

// deliveryEnvelope is the wire shape posted to the webhook endpoint.
type deliveryEnvelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

const defaultRequestTimeout = 10 * time.Second

// HTTPSink posts messages as JSON to a configured URL. Any 2xx response is
// success; every other response and every transport error is a failure that
// feeds the dispatcher's retry rules. The sink may receive the same message
// more than once; receivers must tolerate duplicates.
type HTTPSink struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  log.Logger
}

var _ Sink = (*HTTPSink)(nil)

// HTTPSinkOption customizes an HTTPSink.
type HTTPSinkOption func(*HTTPSink)

// WithHTTPClient overrides the HTTP client, including its timeout.
func WithHTTPClient(client *http.Client) HTTPSinkOption {
	return func(sink *HTTPSink) {
		if client != nil {
			sink.client = client
		}
	}
}

// WithSinkLogger sets the sink logger.
func WithSinkLogger(logger log.Logger) HTTPSinkOption {
	return func(sink *HTTPSink) {
		if logger != nil {
			sink.logger = logger
		}
	}
}

// WithCircuitBreaker shields the endpoint behind a circuit breaker: after
// consecutiveFailures consecutive failed deliveries the sink fails fast for
// openTimeout before probing again. Failing fast still counts as a failed
// attempt, so backed-off messages keep their retry schedule.
func WithCircuitBreaker(consecutiveFailures uint32, openTimeout time.Duration) HTTPSinkOption {
	return func(sink *HTTPSink) {
		sink.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "outbox-webhook",
			Timeout: openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= consecutiveFailures
			},
		})
	}
}

// NewHTTPSink creates a sink posting to url.
func NewHTTPSink(url string, opts ...HTTPSinkOption) (*HTTPSink, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrSinkURLRequired
	}

	sink := &HTTPSink{
		url:    url,
		client: &http.Client{Timeout: defaultRequestTimeout},
		logger: log.NewNop(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sink)
		}
	}

	return sink, nil
}

// Deliver implements Sink.
func (sink *HTTPSink) Deliver(ctx context.Context, message *Message) error {
	if message == nil {
		return ErrMessageRequired
	}

	if sink.breaker == nil {
		return sink.post(ctx, message)
	}

	_, err := sink.breaker.Execute(func() (any, error) {
		return nil, sink.post(ctx, message)
	})

	return err
}

func (sink *HTTPSink) post(ctx context.Context, message *Message) error {
	body, err := json.Marshal(deliveryEnvelope{
		ID:        message.ID.String(),
		Type:      message.Type,
		Payload:   message.Payload,
		CreatedAt: message.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal delivery envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sink.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build delivery request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := sink.client.Do(req)
	if err != nil {
		return fmt.Errorf("post outbox message: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
	}

	return nil
}
