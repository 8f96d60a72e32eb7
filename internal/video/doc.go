// Package video composes the final MP4 from a narration track, background
// stills and the subtitle timeline.
//
// Each still is letterboxed to the output frame ahead of time, the stills are
// concatenated into a background stream, and every subtitle entry becomes a
// drawtext overlay enabled only during its own interval. ffmpeg reads the
// whole graph from a script file kept in the scratch directory.
package video
