// Package plex is a client for the parts of the Plex Media Server XML API
// collectsync needs: server identity, library sections, movie listings with
// file paths, collection tags, and collection create/add/delete.
//
// Requests carry the configured X-Plex-Token plus the standard client
// headers. Failures are tagged with the services error markers so callers can
// classify them.
package plex
