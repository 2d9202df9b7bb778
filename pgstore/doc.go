// Package pgstore provides a PostgreSQL-backed user store for the
// authentication engine.
//
// The store speaks to a single "users" table through a pgx connection
// pool. Soft-deleted rows (deleted_at set) are still returned by the
// lookup methods so the engine can distinguish a disabled account from
// a missing one. Availability checks count soft-deleted rows too, since
// the unique constraints on email and nickname span them.
package pgstore
