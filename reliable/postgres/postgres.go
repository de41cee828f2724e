package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/log"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
)

var (
	// ErrConnectionStringRequired indicates an empty connection string.
	ErrConnectionStringRequired = errors.New("connection string is required")
	// ErrNotConnected indicates DB was called before Connect.
	ErrNotConnected = errors.New("postgres client is not connected")

	credentialsPattern = regexp.MustCompile(`://[^@\s]+@`)
	passwordPattern    = regexp.MustCompile(`(?i)(password=)([^\s&]+)`)
)

// Config describes one database connection.
type Config struct {
	// ConnectionString is the pgx-compatible DSN or URL.
	ConnectionString string
	// MigrationsPath points at a directory of golang-migrate SQL files.
	// Empty skips migrations.
	MigrationsPath string
	// MaxOpenConnections caps the pool. Defaults to 25.
	MaxOpenConnections int
	// MaxIdleConnections caps idle connections. Defaults to 10.
	MaxIdleConnections int
	// Logger defaults to the no-op logger.
	Logger log.Logger
}

// Client owns one lazily-connected pool.
type Client struct {
	cfg       Config
	db        *sql.DB
	connected bool
	mu        sync.RWMutex
}

// NewClient validates the configuration and returns an unconnected client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ConnectionString) == "" {
		return nil, ErrConnectionStringRequired
	}

	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	if cfg.MaxOpenConnections <= 0 {
		cfg.MaxOpenConnections = defaultMaxOpenConns
	}

	if cfg.MaxIdleConnections <= 0 {
		cfg.MaxIdleConnections = defaultMaxIdleConns
	}

	return &Client{cfg: cfg}, nil
}

// Connect opens the pool, runs migrations when configured, and pings.
func (client *Client) Connect(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	client.mu.Lock()
	defer client.mu.Unlock()

	if client.connected {
		return nil
	}

	db, err := sql.Open("pgx", client.cfg.ConnectionString)
	if err != nil {
		return fmt.Errorf("open postgres connection: %s", sanitizeConnError(err))
	}

	db.SetMaxOpenConns(client.cfg.MaxOpenConnections)
	db.SetMaxIdleConns(client.cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if client.cfg.MigrationsPath != "" {
		if err := runMigrations(db, client.cfg.MigrationsPath); err != nil {
			_ = db.Close()

			return err
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return fmt.Errorf("ping postgres: %s", sanitizeConnError(err))
	}

	client.db = db
	client.connected = true

	client.cfg.Logger.Log(ctx, log.LevelInfo, "connected to postgres")

	return nil
}

// DB returns the underlying pool.
func (client *Client) DB() (*sql.DB, error) {
	client.mu.RLock()
	defer client.mu.RUnlock()

	if !client.connected || client.db == nil {
		return nil, ErrNotConnected
	}

	return client.db, nil
}

// Close tears down the pool.
func (client *Client) Close() error {
	client.mu.Lock()
	defer client.mu.Unlock()

	if !client.connected || client.db == nil {
		return nil
	}

	err := client.db.Close()
	client.db = nil
	client.connected = false

	return err
}

func runMigrations(db *sql.DB, migrationsPath string) error {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// sanitizeConnError strips credentials from driver errors before they reach
// logs or wrapped error chains.
func sanitizeConnError(err error) string {
	if err == nil {
		return ""
	}

	text := credentialsPattern.ReplaceAllString(err.Error(), "://[REDACTED]@")

	return passwordPattern.ReplaceAllString(text, "${1}[REDACTED]")
}
