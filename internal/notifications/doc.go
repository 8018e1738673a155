// Package notifications publishes sync outcomes to ntfy.
//
// When no ntfy topic is configured NewService returns a no-op, so the sync
// orchestrator can notify unconditionally.
package notifications
