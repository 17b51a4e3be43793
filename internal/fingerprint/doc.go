// Package fingerprint selects the overlay rule that applies to a device
// identity.
//
// A rule names a vendor, a product (either may be the wildcard "*"), an
// optional exact firmware and an optional exclude glob. Resolution is a
// pipeline of pure stages:
//
//	exclude -> applicable -> rank
//
// Excluded rules are dropped before anything else, so an excluded rule can
// never win on specificity. Survivors are ranked by
// (firmwareMatched, vendorExact, productExact) with a stable sort: among
// equally specific rules the one declared first wins.
//
// Rule tables are immutable snapshots. LoadTable reads YAML, JSON or a
// msgpack snapshot produced by WriteSnapshot; the table version defaults
// to a hash of its rules so every emitted profile can name the exact rules
// it was resolved against.
package fingerprint
