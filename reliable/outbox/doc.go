// Package outbox provides transactional outbox primitives: a message model,
// a repository contract, a publisher that appends messages inside the
// caller's business transaction, and a polling dispatcher that delivers
// pending messages to an external sink with exponential backoff and
// dead-lettering. PostgreSQL adapters live under the postgres subpackage.
package outbox
