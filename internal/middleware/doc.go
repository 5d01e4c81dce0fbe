// Package middleware provides HTTP middleware for the relay service.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with bounded path cardinality
//   - Panic recovery with JSON error responses
//   - Response compression (gzip)
package middleware
