// Package notifications pushes conversion outcomes to ntfy.
//
// The topic comes from the [notifications] section of config.toml. Without a
// topic the service is a no-op, so callers never need to check whether
// notifications are enabled.
package notifications
