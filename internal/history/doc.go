// Package history records conversion attempts in a SQLite database.
//
// Every attempt, successful or not, becomes one row keyed by its conversion
// ID. The CLI lists recent rows and prunes old ones; nothing in the pipeline
// reads history back, so a failing store never blocks a conversion.
package history
