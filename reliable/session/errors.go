package session

import "errors"

var (
	ErrStoreRequired     = errors.New("session store is required")
	ErrDirectoryRequired = errors.New("user directory is required")
	ErrIssuerRequired    = errors.New("access issuer is required")
	ErrUserIDRequired    = errors.New("user id is required")
	ErrSessionNotFound   = errors.New("session not found")
	ErrUserNotFound      = errors.New("user not found")

	// ErrUnauthorized is the single refusal every refresh failure collapses
	// to. Missing, expired, revoked, and locked-user cases are deliberately
	// indistinguishable to the caller.
	ErrUnauthorized = errors.New("refresh token is not valid")

	// ErrForbidden refuses a revocation by a requester who neither owns the
	// session nor holds the admin capability.
	ErrForbidden = errors.New("requester may not revoke this session")
)
