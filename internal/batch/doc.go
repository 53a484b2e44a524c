// Package batch runs the extractor over a corpus with a worker pool while
// keeping the corpus blacklist current.
//
// Documents are processed in fixed-size batches. Every worker in a batch
// filters against the same blacklist snapshot and counts codes into a private
// delta; the coordinator merges the deltas, re-analyzes the blacklist, and
// persists it before the next batch starts. A run therefore never observes a
// half-updated blacklist, and cancelling mid-batch leaves the stored state at
// the last completed batch.
package batch
