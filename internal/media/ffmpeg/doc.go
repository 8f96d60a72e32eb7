// Package ffmpeg runs ffmpeg subprocesses for a conversion.
//
// Every command runs in its own process group so that cancelling the
// conversion context terminates ffmpeg together with any helpers it spawned.
// Failures carry the tool's stderr tail as diagnostic text.
package ffmpeg
