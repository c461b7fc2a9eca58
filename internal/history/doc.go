// Package history records completed allocations for diagnostics.
//
// The bridge reports every outcome through Observer. Records go to a
// bounded in-memory ring by default, or to a SQLite file when a path is
// configured, and are read back newest first.
package history
