package rules_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ucextract/internal/failures"
	"ucextract/internal/rules"
)

const overrides = `
[[ruleset]]
name = "cemig"
preferred_lengths = [9, 10]
static_exclusions = ["1234567890"]
installation_length = { min = 9, max = 10 }

[[ruleset]]
name = "sulgipe"
aliases = ["sulgipe distribuicao", "companhia sul sergipana de eletricidade"]
installation_length = { min = 6, max = 8 }
installation_patterns = ['\d{6,8}']

[[ruleset.customer_anchor]]
label = "Matrícula"
pattern = '\bmatr[íi]cula\b'
specificity = "exact"
`

func TestLoadOverridesAndExtends(t *testing.T) {
	registry, err := rules.Load(strings.NewReader(overrides))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cemig, ok := registry.Lookup("cemig")
	if !ok {
		t.Fatal("cemig missing")
	}
	if cemig.InstallationLength != (rules.LengthRange{Min: 9, Max: 10}) {
		t.Fatalf("installation length = %s", cemig.InstallationLength)
	}
	if !cemig.IsExcluded("1234567890") || !cemig.IsExcluded("30190131") {
		t.Fatalf("expected built-in and added exclusions, got %v", cemig.StaticExclusions)
	}
	if got, _ := registry.Get("Cemig Distribuição"); got != cemig {
		t.Fatal("aliases of the overridden set should still resolve")
	}

	custom, found := registry.Get("Sulgipe")
	if !found || custom.Name != "sulgipe" {
		t.Fatalf("expected sulgipe, got %s (%v)", custom.Name, found)
	}
	if len(custom.InstallationAnchors) != len(registry.Default().InstallationAnchors) {
		t.Fatal("new rule set should inherit default installation anchors")
	}
	last := custom.CustomerAnchors[len(custom.CustomerAnchors)-1]
	if last.Specificity != rules.SpecificityExact || !last.Pattern.MatchString("MATRÍCULA") {
		t.Fatalf("unexpected custom anchor %+v", last)
	}
	if !custom.InstallationPatterns[0].MatchString("123456") || custom.InstallationPatterns[0].MatchString("x123456") {
		t.Fatal("fallback patterns should match whole tokens only")
	}
	if custom.IsExcluded("30190131") {
		t.Fatal("a new rule set must not inherit another distributor's exclusions")
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"bad regex", "[[ruleset]]\nname = \"x\"\ninstallation_patterns = ['(']\n"},
		{"unknown key", "[[ruleset]]\nname = \"x\"\nlenght = 3\n"},
		{"bad range", "[[ruleset]]\nname = \"x\"\ninstallation_length = { min = 9, max = 3 }\n"},
		{"unknown parent", "[[ruleset]]\nname = \"x\"\nextends = \"nope\"\n"},
		{"missing name", "[[ruleset]]\naliases = [\"x\"]\n"},
		{"bad specificity", "[[ruleset]]\nname = \"x\"\n[[ruleset.installation_anchor]]\npattern = 'x'\nspecificity = \"strong\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := rules.LoadFile(path)
			if !errors.Is(err, failures.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestLoadFileEmptyPathReturnsBuiltins(t *testing.T) {
	registry, err := rules.LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	if len(registry.Names()) != len(rules.Builtin()) {
		t.Fatalf("expected %d rule sets, got %d", len(rules.Builtin()), len(registry.Names()))
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := rules.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, failures.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
