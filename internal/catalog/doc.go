// Package catalog turns Radarr and Plex API data into the snapshots the
// reconcile core works on, and adapts the Plex client to the core's Target
// and Deleter interfaces.
package catalog
