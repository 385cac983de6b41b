// Package middleware provides the gin middleware stack for the view API.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting with idle eviction
//   - Logger and Recovery: zap request logging and panic recovery
//
// Example Usage:
//
//	router.Use(middleware.Recovery(logger))
//	router.Use(middleware.CORS(middleware.CORSForOrigins(cfg.Server.AllowedOrigins)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
