// Package notifications alerts the operator about filler database reloads.
//
// The default implementation publishes to the ntfy topic URL configured in
// config.toml and degrades to a no-op when no topic is set, so callers depend
// only on the Service interface.
package notifications
