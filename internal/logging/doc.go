// Package logging assembles structured slog loggers and formatting helpers used
// across ucextract.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so batch code can automatically
// tag log lines with run IDs and document paths. The package also provides a
// no-op logger for tests and library callers that do not want output.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same keys.
package logging
