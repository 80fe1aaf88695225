// Package episode converts a (season, episode) pair into a series-wide
// absolute episode number.
//
// Identifiers come in two schemes, decided once by ParseRef. kitsu:<id>
// identifiers already number episodes absolutely, so the episode is returned
// unchanged. Every other identifier is resolved to a series through the
// metadata provider and the episode counts of all earlier seasons are summed
// in ascending order; a season whose count cannot be fetched contributes zero.
package episode
