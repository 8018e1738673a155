// Package preflight verifies that a configuration can reach its Radarr and
// Plex servers before a sync is attempted.
//
// Each check returns a Result instead of an error so `collectsync check` can
// render every problem at once.
package preflight
