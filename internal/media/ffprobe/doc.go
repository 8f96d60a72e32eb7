// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Durations are always measured from the produced file rather than assumed
// from request parameters: synthesized fragments, concatenated tracks, and
// composed videos are all probed through Prober.Duration.
package ffprobe
