package scanner

import (
	"math"
	"sort"
	"unicode"
	"unicode/utf8"

	"ucextract/internal/rules"
)

const backwardPenalty = 0.8

type anchorHit struct {
	kind   Kind
	anchor rules.Anchor
	start  int
	end    int
}

type claim struct {
	hit      anchorHit
	distance int
	backward bool
}

// ScanAnchored returns the tokens claimed by the rule set's anchor phrases.
//
// Each anchor claims the nearest token after it, within opts.Window bytes,
// whose digit count fits its field. The forward search stops at an anchor of
// the other field unless only punctuation separates the two labels, as in
// "Instalação / Cliente: 123". Anchors that claim nothing forward look
// backward with the same bound and skip tokens already claimed forward.
// A token claimed more than once keeps the most specific claim; at equal
// specificity an installation claim beats a customer claim.
func ScanAnchored(text string, rs *rules.RuleSet, opts Options) []Candidate {
	if rs == nil || text == "" {
		return nil
	}
	opts = opts.normalized()

	tokens := findTokens(text)
	if len(tokens) == 0 {
		return nil
	}
	hits := findAnchors(text, rs)
	if len(hits) == 0 {
		return nil
	}

	claims := make(map[int][]claim)
	unresolved := make([]int, 0)
	for i, hit := range hits {
		limit := forwardBoundary(text, hits, i, opts.Window)
		idx := -1
		for j := firstTokenAt(tokens, hit.end); j < len(tokens) && tokens[j].start < limit; j++ {
			if lengthRange(rs, hit.kind).Contains(len(tokens[j].digits)) {
				idx = j
				break
			}
		}
		if idx < 0 {
			unresolved = append(unresolved, i)
			continue
		}
		claims[idx] = append(claims[idx], claim{hit: hit, distance: tokens[idx].start - hit.end})
	}

	forwardClaimed := make(map[int]bool, len(claims))
	for idx := range claims {
		forwardClaimed[idx] = true
	}
	for _, i := range unresolved {
		hit := hits[i]
		floor := backwardBoundary(text, hits, i, opts.Window)
		for j := firstTokenAt(tokens, hit.start) - 1; j >= 0; j-- {
			tok := tokens[j]
			if tok.end > hit.start {
				continue
			}
			if tok.end <= floor {
				break
			}
			if forwardClaimed[j] || !lengthRange(rs, hit.kind).Contains(len(tok.digits)) {
				continue
			}
			claims[j] = append(claims[j], claim{hit: hit, distance: hit.start - tok.end, backward: true})
			break
		}
	}

	indexes := make([]int, 0, len(claims))
	for idx := range claims {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	out := make([]Candidate, 0, len(indexes))
	for _, idx := range indexes {
		tok := tokens[idx]
		var best Candidate
		for n, c := range claims[idx] {
			cand := Candidate{
				Value:       tok.digits,
				Kind:        c.hit.kind,
				Anchor:      c.hit.anchor.Label,
				Specificity: c.hit.anchor.Specificity,
				Confidence:  anchoredConfidence(rs, c, len(tok.digits), opts.Window),
				Position:    tok.start,
				End:         tok.end,
				Raw:         tok.raw,
				Strategy:    StrategyAnchored,
				Backward:    c.backward,
			}
			if n == 0 || betterClaim(cand, best) {
				best = cand
			}
		}
		out = append(out, best)
	}
	return out
}

func betterClaim(a, b Candidate) bool {
	if a.Specificity != b.Specificity {
		return a.Specificity > b.Specificity
	}
	if a.Kind != b.Kind {
		return a.Kind == KindInstallation
	}
	return a.Confidence > b.Confidence
}

func findAnchors(text string, rs *rules.RuleSet) []anchorHit {
	var hits []anchorHit
	collect := func(kind Kind, anchors []rules.Anchor) {
		for _, anchor := range anchors {
			if anchor.Pattern == nil {
				continue
			}
			for _, span := range anchor.Pattern.FindAllStringIndex(text, -1) {
				hits = append(hits, anchorHit{kind: kind, anchor: anchor, start: span[0], end: span[1]})
			}
		}
	}
	collect(KindInstallation, rs.InstallationAnchors)
	collect(KindCustomer, rs.CustomerAnchors)
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		return hits[i].end > hits[j].end
	})
	return hits
}

// forwardBoundary is where the forward search of hits[i] ends: the start of
// the next anchor of the other field separated from it by real content, or
// the end of the window, whichever comes first.
func forwardBoundary(text string, hits []anchorHit, i, window int) int {
	hit := hits[i]
	limit := min(hit.end+window, len(text))
	for _, next := range hits[i+1:] {
		if next.start >= limit {
			break
		}
		if next.kind == hit.kind || next.start < hit.end {
			continue
		}
		if hasContent(text[hit.end:next.start]) {
			return next.start
		}
	}
	return limit
}

// backwardBoundary mirrors forwardBoundary for the backward search.
func backwardBoundary(text string, hits []anchorHit, i, window int) int {
	hit := hits[i]
	floor := max(hit.start-window, 0)
	for j := i - 1; j >= 0; j-- {
		prev := hits[j]
		if prev.start < floor && prev.end <= floor {
			break
		}
		if prev.kind == hit.kind || prev.end > hit.start {
			continue
		}
		if hasContent(text[prev.end:hit.start]) {
			return prev.end
		}
	}
	return floor
}

// hasContent reports whether s holds anything besides spaces and label
// punctuation.
func hasContent(s string) bool {
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func lengthRange(rs *rules.RuleSet, kind Kind) rules.LengthRange {
	if kind == KindCustomer {
		return rs.CustomerLength
	}
	return rs.InstallationLength
}

func specificityBase(s rules.Specificity) float64 {
	switch s {
	case rules.SpecificityExact:
		return 0.95
	case rules.SpecificityLabel:
		return 0.8
	default:
		return 0.6
	}
}

// anchoredConfidence combines anchor specificity, distance, and how well the
// digit count matches the distributor's usual length.
func anchoredConfidence(rs *rules.RuleSet, c claim, digits, window int) float64 {
	distance := float64(min(c.distance, window))
	score := specificityBase(c.hit.anchor.Specificity) * (1 - 0.5*distance/float64(window))
	if c.hit.kind == KindInstallation && !rs.IsPreferredLength(digits) {
		score *= 0.85
	}
	if c.backward {
		score *= backwardPenalty
	}
	return round4(score)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
