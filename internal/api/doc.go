// Package api implements the HTTP read API of the Gray Logic profiler.
//
// This package provides:
//   - Current and historical device profiles from the profile store
//   - On-demand resolution of a single device key
//   - Middleware stack (request ID, logging, recovery, rate limit)
//
// # Architecture
//
// The driver runtime and the admin tooling read profiles here; the same
// profiles are retained on MQTT for consumers that prefer to subscribe.
// A resolve request runs a one-device batch, so its profile reaches every
// configured sink exactly as a scheduled batch would.
//
// # Errors
//
// Every error response is the JSON envelope {"status", "code", "message"}.
package api
