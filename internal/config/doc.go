// Package config loads, normalizes, and validates Nomen configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// NOMEN_CREATOR_ID. The Config type centralizes the knobs the CLI, writer and
// record store need so paths and identity settings are resolved in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
