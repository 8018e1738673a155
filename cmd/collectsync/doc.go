// Package main hosts the collectsync CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, then hands off to the
// internal packages: syncrun for sync and collection maintenance, preflight for
// check, and history for the run ledger. Commands only render results.
package main
