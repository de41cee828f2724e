//go:build unit

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionState(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	revokedAt := now.Add(-time.Hour)

	tests := []struct {
		name    string
		session Session
		want    State
	}{
		{
			name:    "active",
			session: Session{ExpiresAt: now.Add(time.Hour)},
			want:    StateActive,
		},
		{
			name:    "expired exactly at the deadline",
			session: Session{ExpiresAt: now},
			want:    StateExpired,
		},
		{
			name:    "expired in the past",
			session: Session{ExpiresAt: now.Add(-time.Second)},
			want:    StateExpired,
		},
		{
			name:    "revoked",
			session: Session{ExpiresAt: now.Add(time.Hour), Revoked: true, RevokedAt: &revokedAt},
			want:    StateRevoked,
		},
		{
			name:    "revoked wins over expired",
			session: Session{ExpiresAt: now.Add(-time.Hour), Revoked: true, RevokedAt: &revokedAt},
			want:    StateRevoked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.session.State(now))
		})
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "revoked", StateRevoked.String())
	assert.Equal(t, "expired", StateExpired.String())
	assert.Equal(t, "unknown(7)", State(7).String())
}

func TestStateTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, StateActive.Terminal())
	assert.True(t, StateRevoked.Terminal())
	assert.True(t, StateExpired.Terminal())
}
