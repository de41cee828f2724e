// Package log defines the structured logging contract used across the
// reliability core. Implementations live elsewhere (see the zap package);
// consumers depend only on the Logger interface so background workers and
// guards stay testable with the no-op logger.
package log
