// Package backoff provides exponential delay calculations used by the outbox
// dispatcher's retry schedule, plus jitter and context-aware sleeping for
// in-process retries.
package backoff
