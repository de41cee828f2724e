package outbox

import "fmt"

// Outcome is the closed set of results a delivery attempt can have.
type Outcome uint8

const (
	// OutcomeNone means no message was ready this tick.
	OutcomeNone Outcome = iota
	// OutcomeDelivered means the sink accepted the message; terminal success.
	OutcomeDelivered
	// OutcomeRetried means delivery failed and the message was rescheduled
	// with exponential backoff.
	OutcomeRetried
	// OutcomeDeadLettered means the attempt budget is exhausted and the
	// message was moved to the dead-letter table; terminal failure.
	OutcomeDeadLettered
)

// String returns the outcome name. Unknown values map to "unknown" rather
// than panicking so logging never fails on a bad value.
func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeNone:
		return "none"
	case OutcomeDelivered:
		return "delivered"
	case OutcomeRetried:
		return "retried"
	case OutcomeDeadLettered:
		return "dead_lettered"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(outcome))
	}
}

// Terminal reports whether the outcome ends the message's lifecycle.
func (outcome Outcome) Terminal() bool {
	switch outcome {
	case OutcomeDelivered, OutcomeDeadLettered:
		return true
	case OutcomeNone, OutcomeRetried:
		return false
	default:
		return false
	}
}
