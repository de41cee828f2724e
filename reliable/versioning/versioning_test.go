//go:build unit

package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `W/"1"`, Validator(1))
	assert.Equal(t, `W/"42"`, Validator(42))
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		precondition string
		current      string
		want         Outcome
	}{
		{
			name:         "absent precondition proceeds",
			precondition: "",
			current:      `W/"3"`,
			want:         OutcomeProceed,
		},
		{
			name:         "blank precondition proceeds",
			precondition: "   ",
			current:      `W/"3"`,
			want:         OutcomeProceed,
		},
		{
			name:         "wildcard proceeds",
			precondition: "*",
			current:      `W/"3"`,
			want:         OutcomeProceed,
		},
		{
			name:         "matching weak validator proceeds",
			precondition: `W/"3"`,
			current:      `W/"3"`,
			want:         OutcomeProceed,
		},
		{
			name:         "strong form matches weak current",
			precondition: `"3"`,
			current:      `W/"3"`,
			want:         OutcomeProceed,
		},
		{
			name:         "stale validator rejected",
			precondition: `W/"2"`,
			current:      `W/"3"`,
			want:         OutcomePreconditionFailed,
		},
		{
			name:         "list with one match proceeds",
			precondition: `W/"1", W/"3"`,
			current:      `W/"3"`,
			want:         OutcomeProceed,
		},
		{
			name:         "list with no match rejected",
			precondition: `W/"1", W/"2"`,
			current:      `W/"3"`,
			want:         OutcomePreconditionFailed,
		},
		{
			name:         "malformed validator rejected",
			precondition: `3`,
			current:      `W/"3"`,
			want:         OutcomePreconditionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Check(tt.precondition, tt.current))
		})
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	assert.True(t, Match(`W/"7"`, `W/"7"`))
	assert.True(t, Match(`"7"`, `W/"7"`))
	assert.False(t, Match(`W/"7"`, `W/"8"`))
	assert.False(t, Match(``, ``))
	assert.False(t, Match(`W/""`, `W/""`))
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "proceed", OutcomeProceed.String())
	assert.Equal(t, "precondition_failed", OutcomePreconditionFailed.String())
	assert.Equal(t, "unknown(9)", Outcome(9).String())
}
