// Package tmdb provides the minimal TMDB API client used to resolve IMDB-style
// identifiers into TV series and to count the episodes of each season.
//
// It authenticates requests with an API key, looks series up through the
// /find endpoint, and fetches season details. Client also implements
// metadata.Provider so the classifier can use it directly. Options allow tests
// to supply custom HTTP clients or tighter retry settings without modifying
// production code.
package tmdb
