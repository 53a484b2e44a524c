package scanner

import (
	"regexp"
	"sort"

	"ucextract/internal/rules"
)

// Kind classifies the field a candidate was read from.
type Kind string

const (
	KindUnknown      Kind = "UNKNOWN"
	KindInstallation Kind = "INSTALLATION"
	KindCustomer     Kind = "CUSTOMER"
)

// Strategy names the scan that produced a candidate.
type Strategy string

const (
	StrategyAnchored Strategy = "anchored"
	StrategyFallback Strategy = "fallback-pattern"
)

// Candidate is one numeric token proposed as a field value. Value holds only
// digits and is never parsed as a number.
type Candidate struct {
	Value       string
	Kind        Kind
	Anchor      string
	Specificity rules.Specificity
	Confidence  float64
	// Position and End are byte offsets of Raw in the scanned text.
	Position int
	End      int
	Raw      string
	Strategy Strategy
	Backward bool
}

// DefaultWindow is the anchor proximity window in bytes.
const DefaultWindow = 120

// DefaultFallbackConfidence is the base confidence of pattern-only matches.
const DefaultFallbackConfidence = 0.4

// Options tunes a scan.
type Options struct {
	Window             int
	FallbackConfidence float64
}

// DefaultOptions returns the standard scan settings.
func DefaultOptions() Options {
	return Options{Window: DefaultWindow, FallbackConfidence: DefaultFallbackConfidence}
}

func (o Options) normalized() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.FallbackConfidence <= 0 || o.FallbackConfidence > 1 {
		o.FallbackConfidence = DefaultFallbackConfidence
	}
	return o
}

// tokenPattern matches digit groups joined by single dots or hyphens.
// Slashes split tokens so dates and fractions never fuse into one value.
var tokenPattern = regexp.MustCompile(`\d+(?:[.\-]\d+)*`)

type token struct {
	start  int
	end    int
	raw    string
	digits string
}

func findTokens(text string) []token {
	spans := tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]token, 0, len(spans))
	for _, span := range spans {
		raw := text[span[0]:span[1]]
		tokens = append(tokens, token{start: span[0], end: span[1], raw: raw, digits: onlyDigits(raw)})
	}
	return tokens
}

// firstTokenAt returns the index of the first token starting at or after pos.
func firstTokenAt(tokens []token, pos int) int {
	return sort.Search(len(tokens), func(i int) bool { return tokens[i].start >= pos })
}

func onlyDigits(raw string) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			out = append(out, raw[i])
		}
	}
	return string(out)
}
