package idempotency

import "errors"

var (
	ErrStoreRequired   = errors.New("idempotency store is required")
	ErrKeyRequired     = errors.New("idempotency key is required")
	ErrKeyTooLong      = errors.New("idempotency key exceeds maximum length")
	ErrRouteRequired   = errors.New("idempotency route is required")
	ErrInvalidStatus   = errors.New("idempotency record status code is not a valid HTTP status")
	ErrRecordNotFound  = errors.New("idempotency record not found")
	ErrDuplicateRecord = errors.New("idempotency record already exists for this key and route")
)
