// Package metadata defines the series metadata contract used to translate an
// external identifier into a display name and per-season episode counts.
//
// Provider is implemented by the TMDB client (IMDB-style tt identifiers) and
// the Kitsu client (kitsu:<id> identifiers). Router dispatches by identifier
// scheme, CachingProvider memoizes successful lookups in a bounded TTL cache
// and collapses concurrent identical lookups, and Fetcher is the shared
// rate-limited, retrying JSON transport the concrete clients use.
package metadata
