// Package middleware exposes HTTP middleware adapters for bearer-token
// authentication built on top of authcore.Engine validation.
//
// # Guards
//
//   - [Authenticate] — decodes the bearer token when present. Verification
//     failure degrades to an unauthenticated request; the request always
//     proceeds.
//   - [Require] — rejects with 401 unless a valid access token is presented.
//
// Each guard reads the Authorization header, calls Engine.Validate, and
// injects the resulting [authcore.Principal] into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Validate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Panic on malformed input; a bad header is just an anonymous request.
package middleware
