// Package radarr is a small client for the Radarr v3 REST API: collections,
// library movies, and system status.
package radarr
