// Package fillerdb loads the filler episode database and keeps the current
// copy available to concurrent readers.
//
// The database is a JSON object mapping a slug key (for example "naruto") to
// a record with a display name and the absolute episode numbers that are
// filler or mixed. Key order in the file is significant: the title matcher
// walks keys in that order, so Database preserves it.
//
// When no database file exists a small embedded database is used instead.
// Holder swaps databases atomically and Watcher reloads the file after an
// external scraper rewrites it.
package fillerdb
