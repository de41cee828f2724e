package idempotency

import (
	"fmt"
	"strings"
	"time"
)

// MaxKeyLength bounds a client-supplied idempotency key.
const MaxKeyLength = 255

// Record is one stored response, keyed by (key, route). Records are written
// once and never updated: the first response a key produced is the response
// it keeps producing.
type Record struct {
	Key         string
	Route       string
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// NewRecord validates and builds a record for storage.
func NewRecord(route, key string, statusCode int, contentType string, body []byte) (*Record, error) {
	route = strings.TrimSpace(route)
	if route == "" {
		return nil, ErrRouteRequired
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrKeyRequired
	}

	if len(key) > MaxKeyLength {
		return nil, fmt.Errorf("%w: %d characters", ErrKeyTooLong, len(key))
	}

	if statusCode < 100 || statusCode > 599 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, statusCode)
	}

	stored := make([]byte, len(body))
	copy(stored, body)

	return &Record{
		Key:         key,
		Route:       route,
		StatusCode:  statusCode,
		ContentType: contentType,
		Body:        stored,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
