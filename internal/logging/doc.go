// Package logging assembles structured slog loggers used across curator.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so upload and preview code can tag
// log lines with the upload key that correlates a multi-part transfer. A no-op
// logger is provided for tests and wiring code that cannot fail.
//
// The console handler lifts the upload_key, part and region fields into a
// bracketed tag after the component so lines about one transfer or preview
// region line up when scanned.
package logging
