// Package identitycache persists the mapping from an external series
// identifier (tt0409591, kitsu:11) to the filler database key it resolved to.
//
// A hit skips fuzzy title matching entirely, so the cache must never change
// which key an identifier resolves to, only how fast. Two backends exist:
// JSONStore keeps the flat JSON object file used by earlier deployments and
// SQLiteStore keeps one row per identifier. Both tolerate a missing store by
// behaving as empty, and both make concurrent writers safe: JSONStore with
// an in-process mutex plus a lock file, SQLiteStore with transactions.
//
// Obtain a store through Open so the configured backend is honoured.
package identitycache
