package outbox

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxPayloadBytes bounds a single message payload.
const MaxPayloadBytes = 1 << 20

// Message is one event awaiting delivery. Exactly one of the following holds
// at any time: the message is pending (ProcessedAt nil and no dead letter
// exists), it has been processed (ProcessedAt set), or it has been moved to
// the dead-letter table and deleted from the outbox.
type Message struct {
	ID            uuid.UUID
	Type          string
	Payload       json.RawMessage
	Attempts      int
	CreatedAt     time.Time
	NextAttemptAt *time.Time
	ProcessedAt   *time.Time
}

// DeadLetter is a message that exhausted its delivery attempts. Terminal;
// never retried automatically.
type DeadLetter struct {
	ID      uuid.UUID
	Type    string
	Payload json.RawMessage
	Error   string
	DeadAt  time.Time
}

// NewMessage creates a pending message with a fresh id and zero attempts.
func NewMessage(eventType string, payload []byte) (*Message, error) {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return nil, ErrTypeRequired
	}

	if len(payload) == 0 {
		return nil, ErrPayloadRequired
	}

	if len(payload) > MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	if !json.Valid(payload) {
		return nil, ErrPayloadNotJSON
	}

	return &Message{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   json.RawMessage(payload),
		Attempts:  0,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Ready reports whether the message is eligible for delivery at the given
// instant: not yet processed, and either never scheduled or scheduled at or
// before now.
func (message *Message) Ready(now time.Time) bool {
	if message == nil || message.ProcessedAt != nil {
		return false
	}

	return message.NextAttemptAt == nil || !message.NextAttemptAt.After(now)
}
