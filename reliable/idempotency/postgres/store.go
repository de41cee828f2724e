// Package postgres persists idempotency records in PostgreSQL. The unique
// index on (key, route) is what makes concurrent first requests safe: exactly
// one insert wins, every other writer observes ErrDuplicateRecord.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/idempotency"
	libPostgres "github.com/yirassssindaba-coder/time-series-forecasting/reliable/postgres"
)

const uniqueViolationCode = "23505"

// ErrClientRequired indicates a nil postgres client.
var ErrClientRequired = errors.New("postgres client is required")

// Store implements idempotency.Store on PostgreSQL.
type Store struct {
	client *libPostgres.Client
}

var _ idempotency.Store = (*Store)(nil)

// NewStore creates a PostgreSQL idempotency store.
func NewStore(client *libPostgres.Client) (*Store, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	return &Store{client: client}, nil
}

// Find returns the record for (route, key), or idempotency.ErrRecordNotFound.
func (store *Store) Find(ctx context.Context, route, key string) (*idempotency.Record, error) {
	db, err := store.client.DB()
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT key, route, status_code, content_type, body, created_at
		FROM idempotency_records
		WHERE route = $1 AND key = $2`

	record := &idempotency.Record{}

	err = db.QueryRowContext(ctx, query, route, key).Scan(
		&record.Key,
		&record.Route,
		&record.StatusCode,
		&record.ContentType,
		&record.Body,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, idempotency.ErrRecordNotFound
		}

		return nil, fmt.Errorf("find idempotency record: %w", err)
	}

	return record, nil
}

// Save inserts a record using the client's pool.
func (store *Store) Save(ctx context.Context, record *idempotency.Record) error {
	db, err := store.client.DB()
	if err != nil {
		return err
	}

	return insertRecord(ctx, db, record)
}

// SaveTx inserts a record inside the caller's transaction.
func (store *Store) SaveTx(ctx context.Context, tx idempotency.Tx, record *idempotency.Record) error {
	if tx == nil {
		return errors.New("transaction is required")
	}

	return insertRecord(ctx, tx, record)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRecord(ctx context.Context, db execer, record *idempotency.Record) error {
	const query = `
		INSERT INTO idempotency_records (key, route, status_code, content_type, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := db.ExecContext(ctx, query,
		record.Key,
		record.Route,
		record.StatusCode,
		record.ContentType,
		record.Body,
		record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return idempotency.ErrDuplicateRecord
		}

		return fmt.Errorf("insert idempotency record: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
