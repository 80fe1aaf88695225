// Package matcher picks the filler database record whose name best matches a
// series display name.
//
// An exact match of normalized names wins outright with score 1.0. Otherwise
// every record is scored with textutil.Similarity and the highest score at or
// above the threshold wins; only a strictly better score displaces the current
// best, so ties go to the record seen first under the configured tie-break
// order.
package matcher
