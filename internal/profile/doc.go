// Package profile resolves device identities into capability profiles.
//
// The Resolver is the only component with side effects: it reads evidence
// from a Source, selects the fingerprint rule, extracts text evidence,
// merges structured and inferred mappings, scores the result and assembles
// a DeviceProfile. Batch runs the resolver over many identities in
// parallel and hands every profile to its sinks (SQLite store, retained
// MQTT publication, InfluxDB telemetry).
//
// Merge precedence, strongest first:
//
//	fingerprint rule delta
//	structured claims from official or local sources
//	other structured claims
//	text inference
//
// A weaker assertion never replaces a stronger one on the same source
// primitive. Ties are broken by domain weight, then confidence, then name.
//
// Profiles are immutable once emitted. A later run supersedes the stored
// profile for the same device key; it never modifies it.
package profile
