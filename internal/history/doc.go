// Package history is the execution-history sink: an append-only log of
// task lifecycle events (scheduled, fired, removed).
//
// It currently supports:
//   - SQLite database file (default driver)
//   - JSON Lines file (dependency-free fallback)
package history
