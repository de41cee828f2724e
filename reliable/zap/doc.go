// Package zap provides the production implementation of the log.Logger
// contract backed by go.uber.org/zap. Entries emitted inside an active
// OpenTelemetry span carry trace_id and span_id for correlation.
package zap
