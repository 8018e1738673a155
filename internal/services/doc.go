// Package services defines shared utilities consumed by the sync orchestrator
// and the Radarr/Plex integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, phase names, and collection
//     names for logging.
//   - Structured error markers plus the Wrap helper, and Classify which maps a
//     failed run onto the category persisted in run history.
//
// Use these helpers when wiring new integrations so error handling and
// observability stay uniform across the run.
package services
