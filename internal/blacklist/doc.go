// Package blacklist tracks how many documents of a corpus contain each
// installation code and flags codes that appear in too many of them as
// template or system noise.
//
// State is the corpus-wide counter. It stays COLD until warmup_min documents
// have been counted, then every Analyze recomputes the blacklist from the
// frequency table, so a code can also leave the blacklist when the corpus
// grows. Workers never touch State directly: each accumulates a Delta, a
// single coordinator merges the deltas, and documents are filtered against
// an immutable Snapshot taken once per batch.
//
// A State persists as one artifact through a Store, either a JSON file or a
// SQLite database, so learning carries over between sessions.
package blacklist
