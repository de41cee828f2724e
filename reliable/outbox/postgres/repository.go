package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/log"
	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/outbox"
	libPostgres "github.com/yirassssindaba-coder/time-series-forecasting/reliable/postgres"
)

const (
	defaultClaimLease      = time.Minute
	defaultDeadLetterLimit = 100

	outboxColumns     = "id, type, payload, attempts, created_at, next_attempt_at, processed_at"
	deadLetterColumns = "id, type, payload, error, dead_at"
)

var (
	// ErrClientRequired indicates a nil postgres client.
	ErrClientRequired = errors.New("postgres client is required")
	// ErrMessageNotFound indicates the referenced outbox row no longer exists.
	ErrMessageNotFound = errors.New("outbox message not found")
)

// Option customizes a Repository.
type Option func(*Repository)

// WithLogger sets the repository logger.
func WithLogger(logger log.Logger) Option {
	return func(repo *Repository) {
		if logger != nil {
			repo.logger = logger
		}
	}
}

// WithClaimLease overrides how long a claimed message stays invisible to
// other dispatchers before it becomes retryable again after a crash.
func WithClaimLease(lease time.Duration) Option {
	return func(repo *Repository) {
		if lease > 0 {
			repo.claimLease = lease
		}
	}
}

// Repository implements outbox.Repository on PostgreSQL.
type Repository struct {
	client     *libPostgres.Client
	logger     log.Logger
	claimLease time.Duration
}

var _ outbox.Repository = (*Repository)(nil)

// NewRepository creates a PostgreSQL outbox repository.
func NewRepository(client *libPostgres.Client, opts ...Option) (*Repository, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	repo := &Repository{
		client:     client,
		logger:     log.NewNop(),
		claimLease: defaultClaimLease,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}

	return repo, nil
}

// Enqueue appends a pending message inside the caller's transaction.
func (repo *Repository) Enqueue(ctx context.Context, tx outbox.Tx, message *outbox.Message) error {
	if tx == nil {
		return outbox.ErrTransactionRequired
	}

	if message == nil {
		return outbox.ErrMessageRequired
	}

	const query = `
		INSERT INTO outbox_messages (id, type, payload, attempts, created_at, next_attempt_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, NULL, NULL)`

	if _, err := tx.ExecContext(ctx, query,
		message.ID, message.Type, []byte(message.Payload), message.Attempts, message.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}

	return nil
}

// ClaimNextReady atomically claims the oldest ready message. The claim pushes
// next_attempt_at forward by the lease so a concurrent dispatcher skips the
// row; MarkProcessed, Reschedule, or MoveToDeadLetter overwrite the lease
// with the real terminal or retry state. FOR UPDATE SKIP LOCKED keeps two
// instances from racing on the same selection.
func (repo *Repository) ClaimNextReady(ctx context.Context, now time.Time) (*outbox.Message, error) {
	db, err := repo.client.DB()
	if err != nil {
		return nil, err
	}

	const query = `
		UPDATE outbox_messages
		SET next_attempt_at = $2
		WHERE id = (
			SELECT id
			FROM outbox_messages
			WHERE processed_at IS NULL
			  AND (next_attempt_at IS NULL OR next_attempt_at <= $1)
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + outboxColumns

	row := db.QueryRowContext(ctx, query, now, now.Add(repo.claimLease))

	message, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbox.ErrNoReadyMessages
		}

		return nil, fmt.Errorf("claim outbox message: %w", err)
	}

	return message, nil
}

// MarkProcessed records terminal delivery success.
func (repo *Repository) MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error {
	db, err := repo.client.DB()
	if err != nil {
		return err
	}

	const query = `
		UPDATE outbox_messages
		SET processed_at = $2, next_attempt_at = NULL
		WHERE id = $1 AND processed_at IS NULL`

	result, err := db.ExecContext(ctx, query, id, processedAt)
	if err != nil {
		return fmt.Errorf("mark outbox message processed: %w", err)
	}

	return requireAffected(result)
}

// Reschedule records a failed attempt and the next eligible delivery time.
func (repo *Repository) Reschedule(
	ctx context.Context,
	id uuid.UUID,
	attempts int,
	nextAttemptAt time.Time,
	deliveryError string,
) error {
	db, err := repo.client.DB()
	if err != nil {
		return err
	}

	const query = `
		UPDATE outbox_messages
		SET attempts = $2, next_attempt_at = $3, last_error = $4
		WHERE id = $1 AND processed_at IS NULL`

	result, err := db.ExecContext(ctx, query, id, attempts, nextAttemptAt, deliveryError)
	if err != nil {
		return fmt.Errorf("reschedule outbox message: %w", err)
	}

	return requireAffected(result)
}

// MoveToDeadLetter inserts the dead letter and deletes the outbox row in one
// transaction.
func (repo *Repository) MoveToDeadLetter(
	ctx context.Context,
	message *outbox.Message,
	deliveryError string,
	deadAt time.Time,
) error {
	if message == nil {
		return outbox.ErrMessageRequired
	}

	db, err := repo.client.DB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin dead-letter transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	const insertQuery = `
		INSERT INTO dead_letter_messages (id, type, payload, error, dead_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.ExecContext(ctx, insertQuery,
		uuid.New(), message.Type, []byte(message.Payload), deliveryError, deadAt,
	); err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}

	const deleteQuery = `DELETE FROM outbox_messages WHERE id = $1`

	result, err := tx.ExecContext(ctx, deleteQuery, message.ID)
	if err != nil {
		return fmt.Errorf("delete dead-lettered outbox message: %w", err)
	}

	if err := requireAffected(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit dead-letter transaction: %w", err)
	}

	return nil
}

// ListDeadLetters returns dead letters newest first.
func (repo *Repository) ListDeadLetters(ctx context.Context, limit int) ([]*outbox.DeadLetter, error) {
	db, err := repo.client.DB()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultDeadLetterLimit
	}

	const query = `
		SELECT ` + deadLetterColumns + `
		FROM dead_letter_messages
		ORDER BY dead_at DESC
		LIMIT $1`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var letters []*outbox.DeadLetter

	for rows.Next() {
		letter := &outbox.DeadLetter{}

		if err := rows.Scan(&letter.ID, &letter.Type, &letter.Payload, &letter.Error, &letter.DeadAt); err != nil {
			return nil, fmt.Errorf("scan dead letter: %w", err)
		}

		letters = append(letters, letter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dead letters: %w", err)
	}

	return letters, nil
}

// CountPending reports how many messages are awaiting delivery.
func (repo *Repository) CountPending(ctx context.Context) (int64, error) {
	db, err := repo.client.DB()
	if err != nil {
		return 0, err
	}

	const query = `SELECT COUNT(*) FROM outbox_messages WHERE processed_at IS NULL`

	var count int64
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending outbox messages: %w", err)
	}

	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*outbox.Message, error) {
	message := &outbox.Message{}

	var (
		nextAttemptAt sql.NullTime
		processedAt   sql.NullTime
		payload       []byte
	)

	if err := row.Scan(
		&message.ID,
		&message.Type,
		&payload,
		&message.Attempts,
		&message.CreatedAt,
		&nextAttemptAt,
		&processedAt,
	); err != nil {
		return nil, err
	}

	message.Payload = payload

	if nextAttemptAt.Valid {
		at := nextAttemptAt.Time
		message.NextAttemptAt = &at
	}

	if processedAt.Valid {
		at := processedAt.Time
		message.ProcessedAt = &at
	}

	return message, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return ErrMessageNotFound
	}

	return nil
}
