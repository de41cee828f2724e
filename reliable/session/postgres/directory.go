package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	libPostgres "github.com/yirassssindaba-coder/time-series-forecasting/reliable/postgres"
	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/session"
)

// Directory implements session.UserDirectory against the users table.
type Directory struct {
	client *libPostgres.Client
}

var _ session.UserDirectory = (*Directory)(nil)

// NewDirectory creates a PostgreSQL user directory.
func NewDirectory(client *libPostgres.Client) (*Directory, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	return &Directory{client: client}, nil
}

// Lookup returns the account state session decisions need.
func (directory *Directory) Lookup(ctx context.Context, userID uuid.UUID) (*session.User, error) {
	db, err := directory.client.DB()
	if err != nil {
		return nil, err
	}

	const query = `SELECT id, locked, admin FROM users WHERE id = $1`

	user := &session.User{}

	err = db.QueryRowContext(ctx, query, userID).Scan(&user.ID, &user.Locked, &user.Admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrUserNotFound
		}

		return nil, fmt.Errorf("lookup user: %w", err)
	}

	return user, nil
}
