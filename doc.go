// Package authcore provides the authentication engine behind the cloneNova
// backend: JWT access tokens, long-lived refresh tokens tracked in Redis,
// login attempt throttling, and a single-use password reset flow.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config], and value
// types (LoginResult, ResetRequest, etc.). Collaborators that touch external systems
// (the user database, the outbound mailer) are injected behind the [UserStore],
// [PasswordHasher], and [EmailSender] interfaces.
//
// # What this package must NOT do
//
//   - Expose Redis clients or key layouts in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is allocation-only
//     until Build).
//   - Turn a store connectivity failure into an authentication decision. A Redis error
//     is always surfaced as [ErrStoreUnavailable], never as "not rate limited" or
//     "session absent".
package authcore
