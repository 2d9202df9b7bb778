// Package password implements password hashing and verification. Two
// interchangeable hashers are provided: [Bcrypt], compatible with hashes
// produced by the previous backend, and [Argon2] for new deployments.
//
// # Output format
//
// Argon2 hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Bcrypt hashes use the standard $2a$/$2b$ modular crypt format, so rows
// written by the old backend verify without migration.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (length,
// reuse) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other cloneNova package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
