// Package config loads, normalizes, and validates ucextract configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as UCEXTRACT_STATE_PATH.
// The Config type gathers every knob the extraction runner and the CLI need:
// blacklist admission, scanner tuning, rule files, batching, and logging.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
