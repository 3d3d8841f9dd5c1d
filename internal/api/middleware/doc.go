// Package middleware provides the Gin middleware shared by all routes:
// CORS and per-client rate limiting.
package middleware
