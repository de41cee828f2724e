package idempotency

import "fmt"

// Verdict is the closed set of results a lookup can have.
type Verdict uint8

const (
	// VerdictMiss means no record exists; the caller must execute the
	// operation and record the response.
	VerdictMiss Verdict = iota
	// VerdictReplay means a record exists; the caller must return the stored
	// response verbatim and skip the operation.
	VerdictReplay
)

func (verdict Verdict) String() string {
	switch verdict {
	case VerdictMiss:
		return "miss"
	case VerdictReplay:
		return "replay"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(verdict))
	}
}
