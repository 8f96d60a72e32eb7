package subtitles

import "fmt"

// Validate checks timeline invariants: every cue has start < end, starts are
// strictly increasing, cues do not overlap, and the last cue ends within
// totalSeconds (when positive) plus tolerance. An empty slice means valid.
func Validate(entries []Entry, totalSeconds, tolerance float64) []string {
	var issues []string
	if len(entries) == 0 {
		return []string{"empty_subtitle_track"}
	}
	for i, entry := range entries {
		if entry.Start >= entry.End {
			issues = append(issues, fmt.Sprintf("cue %d: start %.3f not before end %.3f", i+1, entry.Start, entry.End))
		}
		if i == 0 {
			continue
		}
		prev := entries[i-1]
		if entry.Start <= prev.Start {
			issues = append(issues, fmt.Sprintf("cue %d: start %.3f not after previous start %.3f", i+1, entry.Start, prev.Start))
		}
		if entry.Start < prev.End-tolerance {
			issues = append(issues, fmt.Sprintf("cue %d: overlaps previous cue by %.3fs", i+1, prev.End-entry.Start))
		}
	}
	if last := entries[len(entries)-1]; totalSeconds > 0 && last.End > totalSeconds+tolerance {
		issues = append(issues, fmt.Sprintf("duration_mismatch: last cue ends at %.3fs, audio is %.3fs", last.End, totalSeconds))
	}
	return issues
}
