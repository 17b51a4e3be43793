// Package evidence models observations about a device and the sources
// that produce them.
//
// Raw documents (vendor catalogue entries, forum posts, local pairing and
// event logs) are normalised by an Adapter into Evidence records, stored in
// SQLite, and listed per device identity for resolution. A record is
// defective when it has neither text nor a structured claim; defective
// records are reported through Validate and skipped by the resolver rather
// than failing it.
package evidence
