// Package history keeps the run ledger: one row per sync run with its status,
// failure category and outcome counts, plus every mutation the run applied.
// It is backed by SQLite in WAL mode with retries on busy errors.
package history
