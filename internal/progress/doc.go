// Package progress defines run phases and the events that report movement
// through them, along with terminal and log renderers for those events.
package progress
