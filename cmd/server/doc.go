// Package main is the entry point for the optimization bridge server.
//
// The server exposes the bridge (search, key generation and resource
// allocation with classical fallback) and the browser performance
// optimizers over HTTP, and samples network and host metrics in the
// background.
//
// Configuration:
//   - Environment variables (see internal/infrastructure/config)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Process backend
//	BRIDGE_EXECUTABLE=qsolver ./server -port 8000
//
//	# In-process simulator, colored debug logs
//	./server -simulator -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
