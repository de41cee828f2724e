// Package postgres persists refresh sessions in PostgreSQL. Rotation runs in
// a single transaction so a presented token is revoked and replaced as one
// step; a crash between the two can never leave both tokens usable.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	libPostgres "github.com/yirassssindaba-coder/time-series-forecasting/reliable/postgres"
	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/session"
)

const sessionColumns = "id, user_id, token_hash, created_at, expires_at, revoked, revoked_at, user_agent, ip"

// ErrClientRequired indicates a nil postgres client.
var ErrClientRequired = errors.New("postgres client is required")

// Store implements session.Store on PostgreSQL.
type Store struct {
	client *libPostgres.Client
}

var _ session.Store = (*Store)(nil)

// NewStore creates a PostgreSQL session store.
func NewStore(client *libPostgres.Client) (*Store, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	return &Store{client: client}, nil
}

// Create inserts a new session.
func (store *Store) Create(ctx context.Context, record *session.Session) error {
	db, err := store.client.DB()
	if err != nil {
		return err
	}

	return insertSession(ctx, db, record)
}

// FindByTokenHash returns the session holding the given token hash.
func (store *Store) FindByTokenHash(ctx context.Context, tokenHash string) (*session.Session, error) {
	db, err := store.client.DB()
	if err != nil {
		return nil, err
	}

	const query = `SELECT ` + sessionColumns + ` FROM refresh_sessions WHERE token_hash = $1`

	return scanSession(db.QueryRowContext(ctx, query, tokenHash))
}

// FindByID returns the session with the given id.
func (store *Store) FindByID(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	db, err := store.client.DB()
	if err != nil {
		return nil, err
	}

	const query = `SELECT ` + sessionColumns + ` FROM refresh_sessions WHERE id = $1`

	return scanSession(db.QueryRowContext(ctx, query, id))
}

// Revoke marks the session revoked. Already-revoked sessions keep their
// original timestamp.
func (store *Store) Revoke(ctx context.Context, id uuid.UUID, revokedAt time.Time) error {
	db, err := store.client.DB()
	if err != nil {
		return err
	}

	const query = `
		UPDATE refresh_sessions
		SET revoked = TRUE, revoked_at = $2
		WHERE id = $1 AND revoked = FALSE`

	if _, err := db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

// Rotate revokes the old session and inserts its successor in one
// transaction.
func (store *Store) Rotate(ctx context.Context, oldID uuid.UUID, revokedAt time.Time, successor *session.Session) error {
	db, err := store.client.DB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rotation transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	const revokeQuery = `
		UPDATE refresh_sessions
		SET revoked = TRUE, revoked_at = $2
		WHERE id = $1 AND revoked = FALSE`

	result, err := tx.ExecContext(ctx, revokeQuery, oldID, revokedAt)
	if err != nil {
		return fmt.Errorf("revoke rotated session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	// A concurrent refresh already rotated this session; losing the race is
	// an authorization failure, not a partial rotation.
	if affected == 0 {
		return session.ErrUnauthorized
	}

	if err := insertSession(ctx, tx, successor); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rotation transaction: %w", err)
	}

	return nil
}

// ListByUser returns the user's sessions newest first.
func (store *Store) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*session.Session, error) {
	db, err := store.client.DB()
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT ` + sessionColumns + `
		FROM refresh_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var sessions []*session.Session

	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, err
		}

		sessions = append(sessions, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSession(ctx context.Context, db execer, record *session.Session) error {
	const query = `
		INSERT INTO refresh_sessions (id, user_id, token_hash, created_at, expires_at, revoked, revoked_at, user_agent, ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var revokedAt any
	if record.RevokedAt != nil {
		revokedAt = *record.RevokedAt
	}

	if _, err := db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.TokenHash,
		record.CreatedAt,
		record.ExpiresAt,
		record.Revoked,
		revokedAt,
		record.UserAgent,
		record.IP,
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*session.Session, error) {
	record := &session.Session{}

	var revokedAt sql.NullTime

	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.TokenHash,
		&record.CreatedAt,
		&record.ExpiresAt,
		&record.Revoked,
		&revokedAt,
		&record.UserAgent,
		&record.IP,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrSessionNotFound
		}

		return nil, fmt.Errorf("scan session: %w", err)
	}

	if revokedAt.Valid {
		at := revokedAt.Time
		record.RevokedAt = &at
	}

	return record, nil
}
