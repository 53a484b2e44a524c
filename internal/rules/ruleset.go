package rules

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// Specificity ranks how strongly an anchor phrase identifies its field.
type Specificity int

const (
	// SpecificityGeneric anchors only suggest proximity, such as "UC".
	SpecificityGeneric Specificity = iota + 1
	// SpecificityLabel anchors name the field without the number marker.
	SpecificityLabel
	// SpecificityExact anchors are the complete printed field label.
	SpecificityExact
)

func (s Specificity) String() string {
	switch s {
	case SpecificityExact:
		return "exact"
	case SpecificityLabel:
		return "label"
	case SpecificityGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// ParseSpecificity maps a configuration value onto a Specificity.
func ParseSpecificity(value string) (Specificity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "exact":
		return SpecificityExact, nil
	case "label", "":
		return SpecificityLabel, nil
	case "generic":
		return SpecificityGeneric, nil
	default:
		return 0, fmt.Errorf("unknown specificity %q (want exact, label, or generic)", value)
	}
}

// Anchor is a compiled label pattern that precedes or follows a field value.
type Anchor struct {
	Label       string
	Pattern     *regexp.Regexp
	Specificity Specificity
}

// LengthRange bounds the digit count of a field value, inclusive.
type LengthRange struct {
	Min int
	Max int
}

// Contains reports whether n digits fall inside the range.
func (r LengthRange) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

func (r LengthRange) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

func (r LengthRange) valid() bool {
	return r.Min > 0 && r.Max >= r.Min
}

// RuleSet is the extraction configuration for one distributor. RuleSets
// returned by a Registry are shared across goroutines and must not be
// modified.
type RuleSet struct {
	Name    string
	Aliases []string

	InstallationAnchors []Anchor
	CustomerAnchors     []Anchor

	// Fallback patterns match whole numeric tokens, separators included.
	InstallationPatterns []*regexp.Regexp
	CustomerPatterns     []*regexp.Regexp

	InstallationLength LengthRange
	CustomerLength     LengthRange
	PreferredLengths   []int

	StaticExclusions []string

	exclusions map[string]struct{}
}

// IsExcluded reports whether code is a known non-customer code for this
// distributor.
func (rs *RuleSet) IsExcluded(code string) bool {
	if rs == nil {
		return false
	}
	_, ok := rs.exclusions[code]
	return ok
}

// IsPreferredLength reports whether an installation code of n digits has the
// distributor's usual length. An empty preference list prefers everything.
func (rs *RuleSet) IsPreferredLength(n int) bool {
	if rs == nil || len(rs.PreferredLengths) == 0 {
		return true
	}
	return slices.Contains(rs.PreferredLengths, n)
}

// finalize validates the rule set and builds its lookup tables.
func (rs *RuleSet) finalize() error {
	rs.Name = strings.ToLower(strings.TrimSpace(rs.Name))
	if rs.Name == "" {
		return fmt.Errorf("rule set name is required")
	}
	if !rs.InstallationLength.valid() {
		return fmt.Errorf("rule set %s: installation length %s is invalid", rs.Name, rs.InstallationLength)
	}
	if !rs.CustomerLength.valid() {
		return fmt.Errorf("rule set %s: customer length %s is invalid", rs.Name, rs.CustomerLength)
	}
	if len(rs.InstallationAnchors) == 0 {
		return fmt.Errorf("rule set %s: at least one installation anchor is required", rs.Name)
	}
	for _, n := range rs.PreferredLengths {
		if !rs.InstallationLength.Contains(n) {
			return fmt.Errorf("rule set %s: preferred length %d outside installation length %s", rs.Name, n, rs.InstallationLength)
		}
	}

	rs.exclusions = make(map[string]struct{}, len(rs.StaticExclusions))
	codes := make([]string, 0, len(rs.StaticExclusions))
	for _, code := range rs.StaticExclusions {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, dup := rs.exclusions[code]; dup {
			continue
		}
		rs.exclusions[code] = struct{}{}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	rs.StaticExclusions = codes
	return nil
}

// clone returns a deep enough copy for override merging; compiled patterns
// are immutable and shared.
func (rs *RuleSet) clone() *RuleSet {
	out := *rs
	out.Aliases = slices.Clone(rs.Aliases)
	out.InstallationAnchors = slices.Clone(rs.InstallationAnchors)
	out.CustomerAnchors = slices.Clone(rs.CustomerAnchors)
	out.InstallationPatterns = slices.Clone(rs.InstallationPatterns)
	out.CustomerPatterns = slices.Clone(rs.CustomerPatterns)
	out.PreferredLengths = slices.Clone(rs.PreferredLengths)
	out.StaticExclusions = slices.Clone(rs.StaticExclusions)
	out.exclusions = nil
	return &out
}

// compileWholeToken anchors a fallback expression so it must match an entire
// numeric token.
func compileWholeToken(expr string) (*regexp.Regexp, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	return regexp.Compile(`^(?:` + expr + `)$`)
}

func compileAnchor(label, expr string, specificity Specificity) (Anchor, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Anchor{}, fmt.Errorf("anchor %q: empty pattern", label)
	}
	re, err := regexp.Compile(`(?i)` + expr)
	if err != nil {
		return Anchor{}, fmt.Errorf("anchor %q: %w", label, err)
	}
	if label == "" {
		label = expr
	}
	return Anchor{Label: label, Pattern: re, Specificity: specificity}, nil
}

func mustAnchor(label, expr string, specificity Specificity) Anchor {
	a, err := compileAnchor(label, expr, specificity)
	if err != nil {
		panic(err)
	}
	return a
}

func mustWholeToken(expr string) *regexp.Regexp {
	re, err := compileWholeToken(expr)
	if err != nil {
		panic(err)
	}
	return re
}
