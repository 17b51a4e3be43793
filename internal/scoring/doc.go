// Package scoring turns a set of evidence observations about one device
// into a numeric score, a publication status and a confidence level.
//
// The engine is pure: Score depends only on its arguments, the calibration
// and the injected clock, and it is independent of observation order.
// Every point added or removed is recorded in the returned Report so a
// profile can always be explained.
//
// Calibration lives in configuration (config.ScoringConfig); FromConfig
// converts it and DefaultConfig mirrors the shipped defaults.
package scoring
