// Package middleware provides the HTTP middleware in front of the control API.
//
//   - CORS: cross-origin access with the trace headers allowed and exposed
//   - RateLimit: per-IP token buckets, idle clients evicted after IdleTTL
//   - GlobalRateLimit: a single bucket shared by every client
//
// Rejected requests get 429 with a Retry-After header.
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
