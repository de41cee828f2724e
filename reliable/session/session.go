package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one refresh-token lineage entry. TokenHash is the SHA-256 hex
// digest of the opaque refresh token; the raw token is never stored.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
	UserAgent string
	IP        string
}

// State is the closed set of lifecycle states a session can be in.
type State uint8

const (
	// StateActive means the session can be used to refresh.
	StateActive State = iota
	// StateRevoked is terminal: explicitly invalidated by rotation or by a
	// revoke call.
	StateRevoked
	// StateExpired is terminal: the session outlived its TTL. Expiry is a
	// clock comparison at validation time; no sweeper flips rows.
	StateExpired
)

func (state State) String() string {
	switch state {
	case StateActive:
		return "active"
	case StateRevoked:
		return "revoked"
	case StateExpired:
		return "expired"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(state))
	}
}

// Terminal reports whether the state ends the session's lifecycle.
func (state State) Terminal() bool {
	return state == StateRevoked || state == StateExpired
}

// State derives the session's lifecycle state at the given instant.
// Revocation wins over expiry when both hold.
func (session *Session) State(now time.Time) State {
	if session.Revoked {
		return StateRevoked
	}

	if !now.Before(session.ExpiresAt) {
		return StateExpired
	}

	return StateActive
}

// Client carries the request metadata recorded on a session for audit
// listings. Rotation carries it forward from the revoked predecessor.
type Client struct {
	UserAgent string
	IP        string
}

// Credentials is what a successful login or refresh hands the caller.
type Credentials struct {
	SessionID        uuid.UUID
	RefreshToken     string
	RefreshExpiresAt time.Time
	AccessToken      string
	AccessExpiresAt  time.Time
}
