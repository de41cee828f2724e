// Package jwt implements minimal HMAC-signed JWT creation and verification.
// The session manager uses it to mint the short-lived access credential
// returned alongside a rotated refresh token. Validating access credentials
// on the request path is the outer application's concern, not the core's;
// Parse exists so issuance and verification ship as a pair.
package jwt
