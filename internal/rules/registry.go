package rules

import (
	"fmt"
	"sort"
	"strings"

	"ucextract/internal/failures"
	"ucextract/internal/textutil"
)

// similarityThreshold is the minimum cosine similarity for a fuzzy label
// match against an alias.
const similarityThreshold = 0.75

// Match describes how a distributor label was resolved.
type Match string

const (
	MatchExact      Match = "exact"
	MatchAlias      Match = "alias"
	MatchSimilarity Match = "similarity"
	MatchDefault    Match = "default"
)

// Resolution is the outcome of resolving a distributor label.
type Resolution struct {
	Input   string
	Key     string
	RuleSet *RuleSet
	Match   Match
	// Alias is the normalized alias that matched, empty for defaults.
	Alias string
}

// Found reports whether the label selected a specific rule set.
func (r Resolution) Found() bool {
	return r.Match != MatchDefault
}

type aliasEntry struct {
	key         string
	fingerprint *textutil.Fingerprint
	set         *RuleSet
}

// Registry maps normalized distributor labels to rule sets. It is safe for
// concurrent use once built.
type Registry struct {
	byName  map[string]*RuleSet
	names   []string
	exact   map[string]*RuleSet
	aliases []aliasEntry
	def     *RuleSet
}

// NewRegistry builds a registry from sets. Later sets with the same name
// replace earlier ones. A set named "default" is required.
func NewRegistry(sets ...*RuleSet) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*RuleSet, len(sets)),
		exact:  make(map[string]*RuleSet),
	}
	for _, rs := range sets {
		if rs == nil {
			continue
		}
		if err := rs.finalize(); err != nil {
			return nil, failures.Wrap(failures.ErrConfiguration, "rules", "build registry", "invalid rule set", err)
		}
		r.byName[rs.Name] = rs
	}
	def, ok := r.byName[DefaultName]
	if !ok {
		return nil, failures.Wrap(failures.ErrConfiguration, "rules", "build registry", "missing default rule set", nil)
	}
	r.def = def

	for name := range r.byName {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	for _, name := range r.names {
		rs := r.byName[name]
		keys := append([]string{rs.Name}, rs.Aliases...)
		for _, alias := range keys {
			key := textutil.NormalizeKey(alias)
			if key == "" {
				continue
			}
			if existing, dup := r.exact[key]; dup && existing != rs {
				return nil, failures.Wrap(failures.ErrConfiguration, "rules", "build registry",
					fmt.Sprintf("alias %q claimed by %s and %s", key, existing.Name, rs.Name), nil)
			}
			r.exact[key] = rs
			r.aliases = append(r.aliases, aliasEntry{
				key:         key,
				fingerprint: textutil.NewFingerprint(key),
				set:         rs,
			})
		}
	}
	// Longest alias first so containment prefers "energisa mt" over "energisa".
	sort.SliceStable(r.aliases, func(i, j int) bool {
		return len(r.aliases[i].key) > len(r.aliases[j].key)
	})
	return r, nil
}

// MustBuiltin returns a registry holding only the built-in rule sets.
func MustBuiltin() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the rule set for a distributor label. Unknown or empty labels
// return the default rule set and false.
func (r *Registry) Get(name string) (*RuleSet, bool) {
	res := r.Resolve(name)
	return res.RuleSet, res.Found()
}

// Resolve normalizes name and looks it up by exact alias, then by alias
// containment on word boundaries (longest alias wins), then by token
// similarity.
func (r *Registry) Resolve(name string) Resolution {
	key := textutil.NormalizeKey(name)
	res := Resolution{Input: name, Key: key, RuleSet: r.def, Match: MatchDefault}
	if key == "" {
		return res
	}
	if rs, ok := r.exact[key]; ok {
		res.RuleSet, res.Match, res.Alias = rs, MatchExact, key
		return res
	}

	padded := " " + key + " "
	for _, alias := range r.aliases {
		if strings.Contains(padded, " "+alias.key+" ") {
			res.RuleSet, res.Match, res.Alias = alias.set, MatchAlias, alias.key
			return res
		}
	}

	fp := textutil.NewFingerprint(key)
	if fp.TokenCount() == 0 {
		return res
	}
	best := 0.0
	for _, alias := range r.aliases {
		if alias.fingerprint.TokenCount() == 0 {
			continue
		}
		score := textutil.CosineSimilarity(fp, alias.fingerprint)
		if score > best {
			best = score
			if score >= similarityThreshold {
				res.RuleSet, res.Match, res.Alias = alias.set, MatchSimilarity, alias.key
			}
		}
	}
	return res
}

// Default returns the fallback rule set.
func (r *Registry) Default() *RuleSet {
	return r.def
}

// Names lists rule set names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Lookup returns a rule set by its canonical name only.
func (r *Registry) Lookup(name string) (*RuleSet, bool) {
	rs, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return rs, ok
}
