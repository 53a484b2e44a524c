package rules

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"ucextract/internal/failures"
)

type fileConfig struct {
	RuleSets []ruleSetConfig `toml:"ruleset"`
}

type lengthConfig struct {
	Min int `toml:"min"`
	Max int `toml:"max"`
}

type anchorConfig struct {
	Label       string `toml:"label"`
	Pattern     string `toml:"pattern"`
	Specificity string `toml:"specificity"`
}

type ruleSetConfig struct {
	Name    string   `toml:"name"`
	Extends string   `toml:"extends"`
	Aliases []string `toml:"aliases"`

	InstallationLength *lengthConfig `toml:"installation_length"`
	CustomerLength     *lengthConfig `toml:"customer_length"`
	PreferredLengths   []int         `toml:"preferred_lengths"`

	InstallationPatterns []string `toml:"installation_patterns"`
	CustomerPatterns     []string `toml:"customer_patterns"`
	StaticExclusions     []string `toml:"static_exclusions"`

	// ReplaceAnchors drops the inherited anchors instead of appending.
	ReplaceAnchors      bool           `toml:"replace_anchors"`
	InstallationAnchors []anchorConfig `toml:"installation_anchor"`
	CustomerAnchors     []anchorConfig `toml:"customer_anchor"`
}

// LoadFile builds a registry from the built-in rule sets overlaid with the
// rule sets declared in a TOML file. An empty path returns the built-ins.
func LoadFile(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return NewRegistry(Builtin()...)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, failures.Wrap(failures.ErrConfiguration, "rules", "open rules file", path, err)
	}
	defer file.Close()
	return Load(file)
}

// Load reads rule overrides from r. Unknown keys are rejected so typos in
// field names surface instead of silently keeping defaults.
func Load(r io.Reader) (*Registry, error) {
	var cfg fileConfig
	decoder := toml.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, failures.Wrap(failures.ErrConfiguration, "rules", "parse rules file", "unknown keys", errors.New(strict.String()))
		}
		return nil, failures.Wrap(failures.ErrConfiguration, "rules", "parse rules file", "", err)
	}

	builtin := Builtin()
	byName := make(map[string]*RuleSet, len(builtin))
	order := make([]string, 0, len(builtin)+len(cfg.RuleSets))
	for _, rs := range builtin {
		byName[rs.Name] = rs
		order = append(order, rs.Name)
	}

	for i, entry := range cfg.RuleSets {
		rs, err := entry.apply(byName)
		if err != nil {
			return nil, failures.Wrap(failures.ErrConfiguration, "rules", "parse rules file",
				fmt.Sprintf("ruleset[%d]", i), err)
		}
		if _, exists := byName[rs.Name]; !exists {
			order = append(order, rs.Name)
		}
		byName[rs.Name] = rs
	}

	sets := make([]*RuleSet, 0, len(order))
	for _, name := range order {
		sets = append(sets, byName[name])
	}
	return NewRegistry(sets...)
}

func (c ruleSetConfig) apply(known map[string]*RuleSet) (*RuleSet, error) {
	name := strings.ToLower(strings.TrimSpace(c.Name))
	if name == "" {
		return nil, errors.New("name is required")
	}
	baseName := strings.ToLower(strings.TrimSpace(c.Extends))
	if baseName == "" {
		baseName = name
		if _, ok := known[baseName]; !ok {
			baseName = DefaultName
		}
	}
	base, ok := known[baseName]
	if !ok {
		return nil, fmt.Errorf("extends unknown rule set %q", c.Extends)
	}

	rs := base.clone()
	if rs.Name != name {
		// A new rule set inherits rules, not identity.
		rs.Name = name
		rs.Aliases = nil
		rs.StaticExclusions = nil
	}
	rs.Aliases = append(rs.Aliases, c.Aliases...)
	rs.StaticExclusions = append(rs.StaticExclusions, c.StaticExclusions...)

	if c.InstallationLength != nil {
		rs.InstallationLength = LengthRange{Min: c.InstallationLength.Min, Max: c.InstallationLength.Max}
	}
	if c.CustomerLength != nil {
		rs.CustomerLength = LengthRange{Min: c.CustomerLength.Min, Max: c.CustomerLength.Max}
	}
	if c.PreferredLengths != nil {
		rs.PreferredLengths = append([]int(nil), c.PreferredLengths...)
	}

	if c.InstallationPatterns != nil {
		compiled, err := compilePatterns(c.InstallationPatterns)
		if err != nil {
			return nil, fmt.Errorf("installation_patterns: %w", err)
		}
		rs.InstallationPatterns = compiled
	}
	if c.CustomerPatterns != nil {
		compiled, err := compilePatterns(c.CustomerPatterns)
		if err != nil {
			return nil, fmt.Errorf("customer_patterns: %w", err)
		}
		rs.CustomerPatterns = compiled
	}

	installAnchors, err := compileAnchors(c.InstallationAnchors)
	if err != nil {
		return nil, fmt.Errorf("installation_anchor: %w", err)
	}
	customerAnchors, err := compileAnchors(c.CustomerAnchors)
	if err != nil {
		return nil, fmt.Errorf("customer_anchor: %w", err)
	}
	if c.ReplaceAnchors {
		rs.InstallationAnchors = installAnchors
		rs.CustomerAnchors = customerAnchors
	} else {
		rs.InstallationAnchors = append(rs.InstallationAnchors, installAnchors...)
		rs.CustomerAnchors = append(rs.CustomerAnchors, customerAnchors...)
	}
	return rs, nil
}

func compilePatterns(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := compileWholeToken(expr)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", expr, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func compileAnchors(entries []anchorConfig) ([]Anchor, error) {
	out := make([]Anchor, 0, len(entries))
	for _, entry := range entries {
		specificity, err := ParseSpecificity(entry.Specificity)
		if err != nil {
			return nil, err
		}
		anchor, err := compileAnchor(strings.TrimSpace(entry.Label), entry.Pattern, specificity)
		if err != nil {
			return nil, err
		}
		out = append(out, anchor)
	}
	return out, nil
}
