package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/log"
)

const (
	defaultRefreshTTL  = 30 * 24 * time.Hour
	defaultListLimit   = 50
	maxSessionListSize = 50
)

// Store persists sessions.
type Store interface {
	// Create inserts a new session.
	Create(ctx context.Context, session *Session) error

	// FindByTokenHash returns the session holding the given token hash, or
	// ErrSessionNotFound.
	FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// FindByID returns the session, or ErrSessionNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// Revoke marks the session revoked at the given instant. Revoking an
	// already-revoked session keeps the original timestamp and is not an
	// error.
	Revoke(ctx context.Context, id uuid.UUID, revokedAt time.Time) error

	// Rotate atomically revokes the old session and creates its successor.
	// Either both happen or neither does.
	Rotate(ctx context.Context, oldID uuid.UUID, revokedAt time.Time, successor *Session) error

	// ListByUser returns the user's sessions newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Session, error)
}

// User is the directory's view of an account, reduced to what session
// decisions need.
type User struct {
	ID     uuid.UUID
	Locked bool
	Admin  bool
}

// UserDirectory resolves account state. A locked account can neither log in
// nor refresh.
type UserDirectory interface {
	// Lookup returns the user, or ErrUserNotFound.
	Lookup(ctx context.Context, userID uuid.UUID) (*User, error)
}

// AccessIssuer mints short-lived access credentials for an authenticated
// user. Validation of minted credentials is the resource servers' concern.
type AccessIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID) (token string, expiresAt time.Time, err error)
}

// Config controls session lifetimes.
type Config struct {
	// RefreshTTL is how long a refresh session stays valid.
	RefreshTTL time.Duration
	// ListLimit is the default audit listing size.
	ListLimit int
}

// DefaultConfig returns the reference configuration: 30-day refresh
// sessions.
func DefaultConfig() Config {
	return Config{
		RefreshTTL: defaultRefreshTTL,
		ListLimit:  defaultListLimit,
	}
}

func (cfg *Config) normalize() {
	defaults := DefaultConfig()

	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaults.RefreshTTL
	}

	if cfg.ListLimit <= 0 || cfg.ListLimit > maxSessionListSize {
		cfg.ListLimit = defaults.ListLimit
	}
}

// Manager issues, refreshes, and revokes sessions.
type Manager struct {
	store     Store
	directory UserDirectory
	issuer    AccessIssuer
	logger    log.Logger
	cfg       Config
	now       func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithConfig replaces the default configuration. Zero fields fall back to
// defaults.
func WithConfig(cfg Config) Option {
	return func(manager *Manager) {
		manager.cfg = cfg
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger log.Logger) Option {
	return func(manager *Manager) {
		if logger != nil {
			manager.logger = logger
		}
	}
}

// WithClock overrides the manager's time source.
func WithClock(now func() time.Time) Option {
	return func(manager *Manager) {
		if now != nil {
			manager.now = now
		}
	}
}

// NewManager creates a session manager.
func NewManager(store Store, directory UserDirectory, issuer AccessIssuer, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	if directory == nil {
		return nil, ErrDirectoryRequired
	}

	if issuer == nil {
		return nil, ErrIssuerRequired
	}

	manager := &Manager{
		store:     store,
		directory: directory,
		issuer:    issuer,
		logger:    log.NewNop(),
		cfg:       DefaultConfig(),
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		if opt != nil {
			opt(manager)
		}
	}

	manager.cfg.normalize()

	return manager, nil
}

// Issue creates a fresh session for a user at login and mints its first
// access credential.
func (manager *Manager) Issue(ctx context.Context, userID uuid.UUID, client Client) (*Credentials, error) {
	if userID == uuid.Nil {
		return nil, ErrUserIDRequired
	}

	user, err := manager.directory.Lookup(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.Locked {
		return nil, ErrUnauthorized
	}

	token, hash, err := newRefreshToken()
	if err != nil {
		return nil, err
	}

	now := manager.now()

	created := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hash,
		CreatedAt: now,
		ExpiresAt: now.Add(manager.cfg.RefreshTTL),
		UserAgent: client.UserAgent,
		IP:        client.IP,
	}

	if err := manager.store.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	manager.logger.Log(ctx, log.LevelInfo, "session issued",
		log.String("session_id", created.ID.String()),
		log.String("user_id", userID.String()),
	)

	return manager.credentials(ctx, created, token)
}

// Refresh rotates a session: the presented token's session is revoked and a
// successor carrying the same client metadata is created, both atomically.
// Every failure is reported as ErrUnauthorized; the specific reason is only
// logged.
func (manager *Manager) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	if refreshToken == "" {
		return nil, ErrUnauthorized
	}

	now := manager.now()
	presentedHash := HashToken(refreshToken)

	presented, err := manager.store.FindByTokenHash(ctx, presentedHash)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("find session: %w", err)
		}

		return nil, manager.refuse(ctx, uuid.Nil, "unknown token")
	}

	// Re-check in constant time rather than trusting the store's lookup.
	if !hashesEqual(presented.TokenHash, presentedHash) {
		return nil, manager.refuse(ctx, presented.ID, "token hash mismatch")
	}

	if state := presented.State(now); state != StateActive {
		return nil, manager.refuse(ctx, presented.ID, state.String())
	}

	user, err := manager.directory.Lookup(ctx, presented.UserID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("lookup user: %w", err)
		}

		return nil, manager.refuse(ctx, presented.ID, "user gone")
	}

	if user.Locked {
		return nil, manager.refuse(ctx, presented.ID, "user locked")
	}

	token, hash, err := newRefreshToken()
	if err != nil {
		return nil, err
	}

	successor := &Session{
		ID:        uuid.New(),
		UserID:    presented.UserID,
		TokenHash: hash,
		CreatedAt: now,
		ExpiresAt: now.Add(manager.cfg.RefreshTTL),
		UserAgent: presented.UserAgent,
		IP:        presented.IP,
	}

	if err := manager.store.Rotate(ctx, presented.ID, now, successor); err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	manager.logger.Log(ctx, log.LevelInfo, "session rotated",
		log.String("old_session_id", presented.ID.String()),
		log.String("new_session_id", successor.ID.String()),
		log.String("user_id", presented.UserID.String()),
	)

	return manager.credentials(ctx, successor, token)
}

// Actor is whoever is asking for a revocation.
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}

// Revoke invalidates a session. Only the session's owner or an admin may do
// it; everyone else gets ErrForbidden without learning anything further.
// Revoking an already-revoked session succeeds without changing it.
func (manager *Manager) Revoke(ctx context.Context, sessionID uuid.UUID, requester Actor) error {
	target, err := manager.store.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if target.UserID != requester.UserID && !requester.Admin {
		return ErrForbidden
	}

	if target.Revoked {
		return nil
	}

	if err := manager.store.Revoke(ctx, sessionID, manager.now()); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	manager.logger.Log(ctx, log.LevelInfo, "session revoked",
		log.String("session_id", sessionID.String()),
		log.String("requester_id", requester.UserID.String()),
		log.Bool("admin", requester.Admin),
	)

	return nil
}

// Sessions lists a user's sessions newest first for audit screens. The limit
// is clamped to the configured maximum.
func (manager *Manager) Sessions(ctx context.Context, userID uuid.UUID, limit int) ([]*Session, error) {
	if userID == uuid.Nil {
		return nil, ErrUserIDRequired
	}

	if limit <= 0 || limit > manager.cfg.ListLimit {
		limit = manager.cfg.ListLimit
	}

	sessions, err := manager.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

func (manager *Manager) credentials(ctx context.Context, created *Session, refreshToken string) (*Credentials, error) {
	accessToken, accessExpiresAt, err := manager.issuer.Issue(ctx, created.UserID)
	if err != nil {
		return nil, fmt.Errorf("issue access credential: %w", err)
	}

	return &Credentials{
		SessionID:        created.ID,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: created.ExpiresAt,
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
	}, nil
}

func (manager *Manager) refuse(ctx context.Context, sessionID uuid.UUID, reason string) error {
	fields := []log.Field{log.String("reason", reason)}
	if sessionID != uuid.Nil {
		fields = append(fields, log.String("session_id", sessionID.String()))
	}

	manager.logger.Log(ctx, log.LevelWarn, "refresh refused", fields...)

	return ErrUnauthorized
}
