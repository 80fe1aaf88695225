// Package kitsu resolves kitsu:<id> identifiers to anime titles through the
// Kitsu JSON:API. Kitsu episode numbers are already absolute, so the client
// never needs season data.
package kitsu
