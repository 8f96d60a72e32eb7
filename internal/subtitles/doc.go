// Package subtitles serializes subtitle timelines to SRT and parses SRT back
// into cues.
//
// Format is a pure function of its entries; writing the document to disk is
// the caller's job (see WriteFile for the atomic helper the pipeline uses).
// Parse accepts what Format produces plus the common variations found in
// hand-edited files (CRLF, BOM, period millisecond separators).
package subtitles
