// Command fillerinfo classifies anime episodes as filler, mixed or canon.
//
// It serves the addon HTTP surface (serve), answers one-off questions from
// the terminal (classify, season), and manages the local data files the
// classifier depends on (cache, db, config).
package main
