// Package extractor runs the per-document pipeline: mask tax IDs, scan for
// anchored candidates, drop look-alikes, fall back to bare-digit patterns
// when no anchored installation survives, deduplicate, and filter against a
// blacklist snapshot.
//
// Extract never returns an error. Empty or undecodable text, a cancelled
// context, and panics inside the pipeline all become a Result with status
// ERROR and a populated Errors list, so one bad document cannot stop a
// batch.
package extractor
