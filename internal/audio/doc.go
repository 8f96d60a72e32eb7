// Package audio joins timeline fragments into one continuous track.
//
// Fragments are stream-copied through the ffmpeg concat demuxer into a hidden
// part file beside the destination, which is renamed into place only after
// ffmpeg succeeds. The joined track is probed and compared against the sum of
// fragment durations.
package audio
