// Package handlers provides HTTP request handlers for the relay API.
//
// It includes handlers for:
//   - Video processing requests
//   - Run history and per-video lookups
//   - Health, liveness and readiness checks
//   - Version, service info and Prometheus metrics
package handlers
