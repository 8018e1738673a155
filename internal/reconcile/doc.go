// Package reconcile holds the pure core of collection reconciliation.
//
// Source movies (from Radarr) and target movies (from Plex) are keyed by an
// identity derived from the last two components of their file paths. Source
// movies are grouped by collection, each group is planned against the target
// snapshot and the collection registry, and the resulting intents are applied
// through a Target. Nothing in this package performs network I/O directly.
package reconcile
