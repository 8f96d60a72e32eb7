// Package timeline turns a directive-annotated script into an ordered list of
// audio fragments and the subtitle entries aligned with them.
//
// Lines are parsed first and every narration piece becomes an independent
// synthesis job. Jobs run concurrently, then results are put back into
// source order before any timestamp is computed, so the clock only ever
// depends on durations of earlier fragments.
package timeline
