package outbox

import (
	"context"
	"fmt"

	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/log"
)

// Publisher appends outbox messages as part of the caller's business
// transaction. Durability of the delivery intent is guaranteed the instant
// that transaction commits; no acknowledgment from any remote system is
// awaited. Delivery itself is the dispatcher's job.
type Publisher struct {
	repo   Repository
	logger log.Logger
}

// PublisherOption customizes a Publisher.
type PublisherOption func(*Publisher)

// WithPublisherLogger sets the publisher logger.
func WithPublisherLogger(logger log.Logger) PublisherOption {
	return func(publisher *Publisher) {
		if logger != nil {
			publisher.logger = logger
		}
	}
}

// NewPublisher creates a publisher over the given repository.
func NewPublisher(repo Repository, opts ...PublisherOption) (*Publisher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	publisher := &Publisher{
		repo:   repo,
		logger: log.NewNop(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(publisher)
		}
	}

	return publisher, nil
}

// Publish validates and appends one pending message using tx. The caller owns
// the transaction; committing it makes the event durable, rolling it back
// discards the event together with the business mutation.
func (publisher *Publisher) Publish(ctx context.Context, tx Tx, eventType string, payload []byte) (*Message, error) {
	if tx == nil {
		return nil, ErrTransactionRequired
	}

	message, err := NewMessage(eventType, payload)
	if err != nil {
		return nil, fmt.Errorf("new outbox message: %w", err)
	}

	if err := publisher.repo.Enqueue(ctx, tx, message); err != nil {
		return nil, fmt.Errorf("enqueue outbox message: %w", err)
	}

	publisher.logger.Log(ctx, log.LevelDebug, "outbox message enqueued",
		log.String("message_id", message.ID.String()),
		log.String("event_type", message.Type),
	)

	return message, nil
}
