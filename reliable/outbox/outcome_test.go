//go:build unit

package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		outcome Outcome
		want    string
	}{
		{OutcomeNone, "none"},
		{OutcomeDelivered, "delivered"},
		{OutcomeRetried, "retried"},
		{OutcomeDeadLettered, "dead_lettered"},
		{Outcome(42), "unknown(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.outcome.String())
		})
	}
}

func TestOutcomeTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, OutcomeNone.Terminal())
	assert.False(t, OutcomeRetried.Terminal())
	assert.False(t, Outcome(42).Terminal())
	assert.True(t, OutcomeDelivered.Terminal())
	assert.True(t, OutcomeDeadLettered.Terminal())
}
