// Package logging assembles structured slog loggers and formatting helpers used
// across collectsync.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and tags every record with the run id, phase, and collection
// carried on the context. Per-run log files, the current-log pointer, and
// retention pruning live here too, along with a progress sampler that keeps
// percent updates from flooding the log.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape and routing as the rest of the tool.
package logging
