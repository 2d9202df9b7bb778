// Package jwt manages access and refresh token issuance and verification with
// HMAC-SHA256 signing and strict validation semantics suitable for low-latency
// authentication paths.
//
// Access and refresh tokens share one signing key but carry a mandatory type
// claim, so a refresh token can never be replayed as an access token.
package jwt
