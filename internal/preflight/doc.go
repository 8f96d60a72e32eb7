// Package preflight provides readiness checks for the binaries, services,
// and filesystem paths mp4creator depends on.
//
// The pipeline runs RunAll before synthesizing anything so a missing
// directory or unreachable TTS service fails in milliseconds rather than
// after minutes of rendering. The CLI "deps" command prints the same checks.
//
// Each check is gated by configuration: disabled integrations are skipped.
package preflight
