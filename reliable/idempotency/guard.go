package idempotency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/log"
)

// Tx is the transactional handle accepted by Store.SaveTx for callers that
// want the record written by the same transaction as the business mutation.
type Tx = *sql.Tx

// Store persists idempotency records.
type Store interface {
	// Find returns the record for (route, key), or ErrRecordNotFound.
	Find(ctx context.Context, route, key string) (*Record, error)

	// Save inserts a record. A concurrent insert for the same (route, key)
	// surfaces as ErrDuplicateRecord; records are never updated.
	Save(ctx context.Context, record *Record) error

	// SaveTx inserts a record inside the caller's transaction.
	SaveTx(ctx context.Context, tx Tx, record *Record) error
}

// Guard is the lookup-then-record pairing around a mutation. Usage:
// TryReplay first; on VerdictReplay return the record as the response, on
// VerdictMiss execute the mutation and call Record with the outcome.
type Guard struct {
	store  Store
	logger log.Logger
}

// GuardOption customizes a Guard.
type GuardOption func(*Guard)

// WithGuardLogger sets the guard logger.
func WithGuardLogger(logger log.Logger) GuardOption {
	return func(guard *Guard) {
		if logger != nil {
			guard.logger = logger
		}
	}
}

// NewGuard creates a guard over the given store.
func NewGuard(store Store, opts ...GuardOption) (*Guard, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	guard := &Guard{
		store:  store,
		logger: log.NewNop(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(guard)
		}
	}

	return guard, nil
}

// TryReplay looks up a stored response for (route, key). VerdictReplay comes
// with the record to return verbatim; VerdictMiss means the caller runs the
// operation. Store failures are returned as errors so the caller can refuse
// the request rather than risk a duplicate execution.
func (guard *Guard) TryReplay(ctx context.Context, route, key string) (*Record, Verdict, error) {
	route = strings.TrimSpace(route)
	if route == "" {
		return nil, VerdictMiss, ErrRouteRequired
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, VerdictMiss, ErrKeyRequired
	}

	if len(key) > MaxKeyLength {
		return nil, VerdictMiss, fmt.Errorf("%w: %d characters", ErrKeyTooLong, len(key))
	}

	record, err := guard.store.Find(ctx, route, key)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, VerdictMiss, nil
		}

		return nil, VerdictMiss, fmt.Errorf("find idempotency record: %w", err)
	}

	guard.logger.Log(ctx, log.LevelDebug, "idempotent request replayed",
		log.String("route", route),
		log.Int("status_code", record.StatusCode),
	)

	return record, VerdictReplay, nil
}

// Record stores the response produced by a first execution. Losing an insert
// race to a concurrent request with the same key is not an error: the winner's
// record is the canonical response, and this request already returned its own.
func (guard *Guard) Record(ctx context.Context, route, key string, statusCode int, contentType string, body []byte) error {
	record, err := NewRecord(route, key, statusCode, contentType, body)
	if err != nil {
		return err
	}

	if err := guard.store.Save(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			guard.logger.Log(ctx, log.LevelDebug, "idempotency record already present; keeping first",
				log.String("route", route),
			)

			return nil
		}

		return fmt.Errorf("save idempotency record: %w", err)
	}

	return nil
}
