// Package config loads, normalizes, and validates fillerinfo configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and PORT. The Config type centralizes the filler database
// location, identity cache backend, metadata provider credentials, matcher
// tuning, and addon server settings in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
