// Package config loads, normalizes, and validates ruokalista configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// PORT, RUOKALISTA_OUTPUT_DIR and RUOKALISTA_TIMEZONE. The Config type
// centralizes every knob the daemon and CLI need, including the time zone
// that every Day Key is computed in.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a resolved time zone, and clear validation errors.
package config
