// Package pipeline orchestrates one conversion from script text to
// finished artifacts.
//
// Convert runs the stages in order: timeline assembly, audio
// concatenation, image resolution and video composition (video mode only),
// subtitle export, and an optional Drive upload. Each stage logs
// stage_start/stage_complete/stage_failure events stamped with the
// conversion ID and stage name.
//
// A conversion owns three things that must never leak: the flock on
// <output>.lock, the scratch namespace under the work directory, and the
// synthesized fragments. All three are released on every return path,
// including cancellation. Outcomes are written to the history store and
// pushed through the notification service after the stages finish; neither
// can turn a successful conversion into a failure.
package pipeline
