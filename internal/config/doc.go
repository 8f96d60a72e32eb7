// Package config reads the mp4creator TOML file and fills every unset field
// with a default.
//
// Environment fallbacks cover the credentials people rarely want in a file:
// GIPHY_API_KEY, GOOGLE_APPLICATION_CREDENTIALS, MP4CREATOR_NTFY_TOPIC and
// MP4CREATOR_TTS_URL. The voice table maps the names used in scripts to
// engine voice identifiers and is read-only once loaded.
package config
