// Package config loads, normalizes, and validates curator configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as CURATOR_TOKEN. The
// Config type centralizes the backend credentials, capture parser knobs, and
// preview defaults the CLI needs so every command sees the same values.
package config
