// Package testsupport provides shared helpers for tests: a config builder
// rooted in temp directories, a history store opener, and in-memory Radarr
// and Plex servers.
package testsupport
