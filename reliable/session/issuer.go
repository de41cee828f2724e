package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yirassssindaba-coder/time-series-forecasting/reliable/jwt"
)

const defaultAccessTTL = 30 * time.Minute

// ErrSecretRequired indicates an empty signing secret.
var ErrSecretRequired = errors.New("signing secret is required")

// JWTIssuer mints HMAC-signed access tokens. Tokens carry sub (the user id),
// iat, and exp; resource servers validate them independently.
type JWTIssuer struct {
	secret    []byte
	algorithm string
	ttl       time.Duration
	now       func() time.Time
}

var _ AccessIssuer = (*JWTIssuer)(nil)

// JWTIssuerOption customizes a JWTIssuer.
type JWTIssuerOption func(*JWTIssuer)

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(ttl time.Duration) JWTIssuerOption {
	return func(issuer *JWTIssuer) {
		if ttl > 0 {
			issuer.ttl = ttl
		}
	}
}

// WithAlgorithm overrides the signing algorithm. It must be one of the HMAC
// algorithms the jwt package supports.
func WithAlgorithm(algorithm string) JWTIssuerOption {
	return func(issuer *JWTIssuer) {
		if algorithm != "" {
			issuer.algorithm = algorithm
		}
	}
}

// WithIssuerClock overrides the issuer's time source.
func WithIssuerClock(now func() time.Time) JWTIssuerOption {
	return func(issuer *JWTIssuer) {
		if now != nil {
			issuer.now = now
		}
	}
}

// NewJWTIssuer creates an issuer signing with the given shared secret.
func NewJWTIssuer(secret []byte, opts ...JWTIssuerOption) (*JWTIssuer, error) {
	if len(secret) == 0 {
		return nil, ErrSecretRequired
	}

	issuer := &JWTIssuer{
		secret:    secret,
		algorithm: jwt.AlgHS256,
		ttl:       defaultAccessTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		if opt != nil {
			opt(issuer)
		}
	}

	return issuer, nil
}

// Issue implements AccessIssuer.
func (issuer *JWTIssuer) Issue(_ context.Context, userID uuid.UUID) (string, time.Time, error) {
	if userID == uuid.Nil {
		return "", time.Time{}, ErrUserIDRequired
	}

	now := issuer.now()
	expiresAt := now.Add(issuer.ttl)

	token, err := jwt.Sign(jwt.Claims{
		"sub": userID.String(),
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}, issuer.algorithm, issuer.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}
