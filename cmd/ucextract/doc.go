// Package main hosts the ucextract CLI entrypoint and command graph.
//
// The Cobra command tree exposes corpus extraction, blacklist maintenance,
// distributor rule inspection, tax ID helpers, and configuration scaffolding.
// It centralizes configuration resolution and logger setup so subcommands only
// translate flags into calls on the internal packages.
package main
