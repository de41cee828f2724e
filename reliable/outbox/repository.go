package outbox

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Tx is the transactional handle used by Publisher.Publish.
//
// It intentionally aliases *sql.Tx so the outbox row is written by the same
// transaction that performs the triggering business mutation, without hidden
// adapter layers in the write path.
type Tx = *sql.Tx

// Repository defines persistence operations for outbox messages.
type Repository interface {
	// Enqueue appends a pending message inside the caller's transaction.
	Enqueue(ctx context.Context, tx Tx, message *Message) error

	// ClaimNextReady atomically claims the single oldest ready message
	// (unprocessed, next attempt nil or due), ordered by creation time.
	// Returns ErrNoReadyMessages when nothing is due. The claim must be safe
	// against a second dispatcher instance claiming the same row.
	ClaimNextReady(ctx context.Context, now time.Time) (*Message, error)

	// MarkProcessed records terminal delivery success.
	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error

	// Reschedule records a failed attempt: the new attempts count, the next
	// eligible delivery time, and the captured error text.
	Reschedule(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, deliveryError string) error

	// MoveToDeadLetter atomically inserts a dead letter carrying the
	// message's type and payload and removes the outbox row.
	MoveToDeadLetter(ctx context.Context, message *Message, deliveryError string, deadAt time.Time) error

	// ListDeadLetters returns dead letters newest first, for operator review.
	ListDeadLetters(ctx context.Context, limit int) ([]*DeadLetter, error)

	// CountPending reports how many messages are awaiting delivery.
	CountPending(ctx context.Context) (int64, error)
}
