// Package config loads, normalizes, and validates satkit configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI and resolver need: recorded-data search roots, the scenario working
// directory, manifest file naming, and resolver concurrency.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths, canonical log formats, and clear validation errors.
package config
