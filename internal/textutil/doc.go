// Package textutil provides text normalization helpers shared by the rule
// registry and the CLI.
//
// NormalizeKey folds free-form labels such as distributor names into a
// comparable key: accents are stripped, case is folded, and runs of
// punctuation or whitespace collapse to a single space. Fingerprints built
// from those keys support fuzzy label matching through cosine similarity.
package textutil
