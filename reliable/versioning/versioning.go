// Package versioning implements optimistic concurrency with weak entity-tag
// validators. Every versioned resource carries an integer version starting at
// 1 that increments exactly once per accepted mutation; the validator for
// version n is the weak entity-tag `W/"n"`.
//
// Detection is advisory: nothing is locked. A mutation carrying a stale
// precondition is rejected before any change, leaving the resource and its
// version untouched. A mutation carrying no precondition proceeds
// unconditionally, which is the correct reading of an absent If-Match.
package versioning

import (
	"fmt"
	"strings"
)

const weakPrefix = `W/`

// Validator returns the weak entity-tag for a resource version.
func Validator(version int64) string {
	return fmt.Sprintf(`W/"%d"`, version)
}

// Outcome is the closed set of results a precondition check can have.
type Outcome uint8

const (
	// OutcomeProceed means the mutation may run.
	OutcomeProceed Outcome = iota
	// OutcomePreconditionFailed means the client's view is stale; the
	// mutation must be rejected with the resource untouched.
	OutcomePreconditionFailed
)

func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeProceed:
		return "proceed"
	case OutcomePreconditionFailed:
		return "precondition_failed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(outcome))
	}
}

// Check evaluates a client precondition against the current validator.
// An empty precondition proceeds unconditionally. The wildcard "*" matches
// any current version. Anything else must weakly match the current validator.
func Check(precondition, current string) Outcome {
	precondition = strings.TrimSpace(precondition)
	if precondition == "" || precondition == "*" {
		return OutcomeProceed
	}

	for _, candidate := range strings.Split(precondition, ",") {
		if Match(candidate, current) {
			return OutcomeProceed
		}
	}

	return OutcomePreconditionFailed
}

// Match reports whether two entity-tags are equal under weak comparison:
// the weak prefix is ignored on both sides and the opaque tags must be
// octet-identical.
func Match(a, b string) bool {
	a = opaqueTag(a)
	b = opaqueTag(b)

	return a != "" && a == b
}

func opaqueTag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, weakPrefix)

	if len(tag) < 2 || tag[0] != '"' || tag[len(tag)-1] != '"' {
		return ""
	}

	return tag[1 : len(tag)-1]
}
