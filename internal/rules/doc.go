// Package rules holds the per-distributor extraction rules: which contract
// labels anchor installation and customer numbers, how many digits each kind
// carries, bare-digit fallback patterns, and codes that are never customer
// data.
//
// A Registry maps normalized distributor labels to immutable RuleSets and
// always resolves to something: unknown or empty labels fall back to the
// built-in "default" rule set. Built-ins can be overridden or extended from a
// TOML file through LoadFile.
package rules
