// Package http provides the Gin handlers of the bridge REST API.
//
// Endpoints:
//   - Health: / and /health
//   - Services: /services, /services/discover, /services/execute
//   - Bridge: /bridge/state, /bridge/reset, /bridge/history,
//     /bridge/optimize, /bridge/search, /bridge/key
//   - Performance: /performance/summary, /performance/network,
//     /performance/strategy, /performance/page, /performance/page/metrics
//   - Metrics: /metrics/json (the Prometheus handler is mounted by the server)
//
// Bad input answers 400. An exhausted backend answers 503; allocations
// never do, since they fall back to the classical optimizer.
//
// Example Usage:
//
//	handlers := http.NewHandlers(http.Deps{Registry: registry, Bridge: bridge, ...})
//	handlers.Register(router)
package http
