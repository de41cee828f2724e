package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"strings"
	"time"
)

const (
	// AlgHS256 identifies the HMAC-SHA256 signing algorithm.
	AlgHS256 = "HS256"
	// AlgHS384 identifies the HMAC-SHA384 signing algorithm.
	AlgHS384 = "HS384"
	// AlgHS512 identifies the HMAC-SHA512 signing algorithm.
	AlgHS512 = "HS512"

	// partCount is the number of dot-separated parts in a compact JWT.
	partCount = 3

	// maxTokenLength bounds parse input; 8KB is generous for any real token.
	maxTokenLength = 8192
)

// Claims is an unstructured JWT payload.
type Claims = map[string]any

var (
	// ErrMalformedToken indicates the token string cannot be decoded.
	ErrMalformedToken = errors.New("malformed token")
	// ErrAlgorithmNotAllowed indicates the signing algorithm is unsupported or not whitelisted.
	ErrAlgorithmNotAllowed = errors.New("signing algorithm not allowed")
	// ErrBadSignature indicates the signature does not match.
	ErrBadSignature = errors.New("signature verification failed")
	// ErrExpired indicates the exp claim is in the past.
	ErrExpired = errors.New("token has expired")
)

// Sign produces a compact JWT from the given claims using the specified HMAC
// algorithm and shared secret.
func Sign(claims Claims, algorithm string, secret []byte) (string, error) {
	hashFunc, err := hashForAlgorithm(algorithm)
	if err != nil {
		return "", err
	}

	headerJSON, err := json.Marshal(map[string]string{"alg": algorithm, "typ": "JWT"})
	if err != nil {
		return "", fmt.Errorf("marshal header: %w", err)
	}

	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) +
		"." + base64.RawURLEncoding.EncodeToString(claimsJSON)

	signature := computeHMAC([]byte(signingInput), secret, hashFunc)

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}

// Parse decodes a compact JWT, verifies the algorithm is in allowedAlgorithms,
// and checks the HMAC signature in constant time. Time-based claims are NOT
// validated here; call ValidateTimeClaims separately.
func Parse(tokenString string, secret []byte, allowedAlgorithms []string) (Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("empty token string: %w", ErrMalformedToken)
	}

	if len(tokenString) > maxTokenLength {
		return nil, fmt.Errorf("token exceeds %d bytes: %w", maxTokenLength, ErrMalformedToken)
	}

	parts := strings.Split(tokenString, ".")
	if len(parts) != partCount {
		return nil, fmt.Errorf("token must have %d parts: %w", partCount, ErrMalformedToken)
	}

	alg, err := parseAlgorithm(parts[0], allowedAlgorithms)
	if err != nil {
		return nil, err
	}

	if err := verifySignature(parts, alg, secret); err != nil {
		return nil, err
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", ErrMalformedToken)
	}

	var claims Claims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", ErrMalformedToken)
	}

	return claims, nil
}

// ValidateTimeClaims checks the exp claim against now. Absent claims skip the
// check.
func ValidateTimeClaims(claims Claims, now time.Time) error {
	exp, ok := extractTime(claims, "exp")
	if !ok {
		return nil
	}

	if now.After(exp) {
		return fmt.Errorf("token expired at %s: %w", exp.Format(time.RFC3339), ErrExpired)
	}

	return nil
}

func parseAlgorithm(headerPart string, allowedAlgorithms []string) (string, error) {
	headerBytes, err := base64.RawURLEncoding.DecodeString(headerPart)
	if err != nil {
		return "", fmt.Errorf("decode header: %w", ErrMalformedToken)
	}

	var header map[string]any
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return "", fmt.Errorf("unmarshal header: %w", ErrMalformedToken)
	}

	alg, ok := header["alg"].(string)
	if !ok || alg == "" {
		return "", fmt.Errorf("missing alg in header: %w", ErrMalformedToken)
	}

	for _, allowed := range allowedAlgorithms {
		if allowed == alg {
			return alg, nil
		}
	}

	return "", fmt.Errorf("algorithm %q: %w", alg, ErrAlgorithmNotAllowed)
}

func verifySignature(parts []string, alg string, secret []byte) error {
	hashFunc, err := hashForAlgorithm(alg)
	if err != nil {
		return err
	}

	expected := computeHMAC([]byte(parts[0]+"."+parts[1]), secret, hashFunc)

	actual, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return fmt.Errorf("decode signature: %w", ErrMalformedToken)
	}

	if !hmac.Equal(expected, actual) {
		return ErrBadSignature
	}

	return nil
}

func hashForAlgorithm(alg string) (func() hash.Hash, error) {
	switch alg {
	case AlgHS256:
		return sha256.New, nil
	case AlgHS384:
		return sha512.New384, nil
	case AlgHS512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("algorithm %q: %w", alg, ErrAlgorithmNotAllowed)
	}
}

func computeHMAC(data, secret []byte, hashFunc func() hash.Hash) []byte {
	mac := hmac.New(hashFunc, secret)
	mac.Write(data)

	return mac.Sum(nil)
}

func extractTime(claims Claims, key string) (time.Time, bool) {
	raw, ok := claims[key]
	if !ok {
		return time.Time{}, false
	}

	switch value := raw.(type) {
	case float64:
		return time.Unix(int64(value), 0), true
	case int64:
		return time.Unix(value, 0), true
	case json.Number:
		seconds, err := value.Int64()
		if err != nil {
			return time.Time{}, false
		}

		return time.Unix(seconds, 0), true
	default:
		return time.Time{}, false
	}
}
