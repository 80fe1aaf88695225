// Package classifier answers whether one episode of one series is filler,
// mixed or canon.
//
// A classification runs four steps: resolve the series display name through
// the metadata provider, resolve the filler database key through the identity
// cache (falling back to the fuzzy matcher and recording its answer), compute
// the absolute episode number, then test membership in the record's filler set
// before its mixed set. Every failure along the way collapses to StatusNoData
// at Classify; Explain keeps the classified error for logs and the CLI.
package classifier
