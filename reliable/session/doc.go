// Package session manages revocable refresh sessions with token rotation.
//
// A session is created at login and holds the SHA-256 hash of an opaque
// refresh token; the raw token exists only in the client's hands. Each
// refresh atomically revokes the presented session and issues a successor,
// so a stolen token stops working the moment its legitimate holder refreshes
// first. Every refresh failure collapses to a single unauthorized error:
// callers never learn whether a token was unknown, expired, or revoked.
package session
