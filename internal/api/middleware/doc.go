// Package middleware provides the gin middleware of the bridge API.
//
//   - CORS: cross-origin access through gin-contrib/cors
//   - RateLimit: per-IP token buckets with idle eviction
//   - GlobalRateLimit: one bucket for all callers
//   - RequestID: X-Request-ID tagging with ULID-based IDs
//   - Logger: one zap line per request, level by status
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Logger(log))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
