// Package tts synthesizes one narration segment at a time.
//
// A Synthesizer resolves a human-facing voice name, delegates rendering to a
// Renderer, stores the audio in the conversion's scratch directory and
// measures its duration with a Prober. It holds no mutable state, so a single
// instance serves concurrent segments.
package tts
