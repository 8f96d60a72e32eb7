// Package services defines shared utilities consumed by the conversion
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp conversion IDs, stage names, and segment
//     indexes for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into history outcomes (failed vs rejected vs canceled).
//
// Subpackages hold the clients for external collaborators: speech renderers,
// image search, and Google Drive/Sheets.
package services
