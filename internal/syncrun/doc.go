// Package syncrun executes one reconciliation run end to end.
//
// Run owns every run-scoped structure: the single-run lock, the per-run log
// file, the history record, the Plex library session, the source and target
// indices, and the collection registry. Nothing outlives the call. Errors are
// returned wrapped in *RunError so callers can point users at the run log.
package syncrun
