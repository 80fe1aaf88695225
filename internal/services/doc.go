// Package services defines shared utilities consumed by the classifier and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and series
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag failures with the
//     taxonomy the classifier logs (not found, no match, metadata unavailable,
//     cache unavailable).
//
// Callers never surface these markers to end users; the classifier collapses
// every marked failure into a single "no data" result and the markers exist so
// logs can say why.
package services
