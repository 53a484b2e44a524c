// Package scanner finds installation and customer number candidates in
// masked contract text.
//
// ScanAnchored walks every anchor phrase of a rule set and claims the
// nearest numeric token whose digit count fits the anchor's field, looking
// forward first and backward only when nothing follows. ScanFallback applies
// the rule set's bare-digit patterns to every token and is meant for
// documents without usable anchors. Both return one candidate per token in
// text order; deduplication by value is left to the caller.
package scanner
