package scanner

import (
	"regexp"

	"ucextract/internal/rules"
)

// ScanFallback classifies every token matching one of the rule set's
// bare-digit patterns. Installation patterns win when a token matches both
// kinds. Confidence starts at opts.FallbackConfidence and is reduced for
// installation codes of an unusual length.
func ScanFallback(text string, rs *rules.RuleSet, opts Options) []Candidate {
	if rs == nil || text == "" {
		return nil
	}
	opts = opts.normalized()

	var out []Candidate
	for _, tok := range findTokens(text) {
		kind := KindUnknown
		var matched *regexp.Regexp
		if re := firstMatch(rs.InstallationPatterns, tok.raw); re != nil && rs.InstallationLength.Contains(len(tok.digits)) {
			kind, matched = KindInstallation, re
		} else if re := firstMatch(rs.CustomerPatterns, tok.raw); re != nil && rs.CustomerLength.Contains(len(tok.digits)) {
			kind, matched = KindCustomer, re
		}
		if kind == KindUnknown {
			continue
		}
		confidence := opts.FallbackConfidence
		if kind == KindInstallation && !rs.IsPreferredLength(len(tok.digits)) {
			confidence *= 0.85
		}
		out = append(out, Candidate{
			Value:      tok.digits,
			Kind:       kind,
			Anchor:     matched.String(),
			Confidence: round4(confidence),
			Position:   tok.start,
			End:        tok.end,
			Raw:        tok.raw,
			Strategy:   StrategyFallback,
		})
	}
	return out
}

func firstMatch(patterns []*regexp.Regexp, raw string) *regexp.Regexp {
	for _, re := range patterns {
		if re.MatchString(raw) {
			return re
		}
	}
	return nil
}
