package textutil

import "math"

// minFingerprintToken drops connector words such as "de" and "do".
const minFingerprintToken = 3

// Fingerprint represents a term-frequency vector for label comparison.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from the normalized tokens of text.
// Returns nil if the text produces no tokens of at least three characters.
func NewFingerprint(text string) *Fingerprint {
	counts := make(map[string]float64)
	for _, token := range Tokenize(text) {
		if len(token) < minFingerprintToken {
			continue
		}
		counts[token]++
	}
	if len(counts) == 0 {
		return nil
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{
		tokens: counts,
		norm:   math.Sqrt(norm),
	}
}

// TokenCount returns the number of unique tokens in the fingerprint.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}
