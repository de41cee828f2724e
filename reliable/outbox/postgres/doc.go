// Package postgres persists outbox and dead-letter messages in PostgreSQL.
// The claim query takes a short lease on the selected row so two dispatcher
// instances can never deliver the same message concurrently.
package postgres
