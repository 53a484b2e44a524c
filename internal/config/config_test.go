package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ucextract/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvStatePath, "")
	t.Setenv(config.EnvRulesPath, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "ucextract", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}

	wantState := filepath.Join(tempHome, ".local", "share", "ucextract", "blacklist.json")
	if cfg.Blacklist.StatePath != wantState {
		t.Fatalf("unexpected state path: got %q want %q", cfg.Blacklist.StatePath, wantState)
	}
	if !cfg.Blacklist.Enabled {
		t.Fatal("expected blacklist enabled by default")
	}
	if cfg.Blacklist.ThresholdPercent != 80 || cfg.Blacklist.WarmupMinDocs != 10 {
		t.Fatalf("unexpected admission defaults: %+v", cfg.Blacklist)
	}
	if cfg.Scanner.Window != 120 || !cfg.Scanner.FallbackEnabled {
		t.Fatalf("unexpected scanner defaults: %+v", cfg.Scanner)
	}
	if cfg.Rules.Path != "" {
		t.Fatalf("expected no rules file by default, got %q", cfg.Rules.Path)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvStatePath, "")
	t.Setenv(config.EnvRulesPath, "")
	t.Setenv(config.EnvLogLevel, "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[blacklist]
state_path = "~/state/corpus.db"
threshold_percent = 60
warmup_min_docs = 25

[scanner]
window = 200
fallback_enabled = false

[rules]
path = "~/rules.toml"

[batch]
workers = 8
batch_size = 16
refilter = true

[logging]
format = "JSON"
level = "Debug"
dir = "~/logs"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Blacklist.StatePath != filepath.Join(tempHome, "state", "corpus.db") {
		t.Fatalf("unexpected state path: %q", cfg.Blacklist.StatePath)
	}
	if cfg.Blacklist.ThresholdPercent != 60 || cfg.Blacklist.WarmupMinDocs != 25 {
		t.Fatalf("unexpected blacklist config: %+v", cfg.Blacklist)
	}
	if cfg.Scanner.Window != 200 || cfg.Scanner.FallbackEnabled {
		t.Fatalf("unexpected scanner config: %+v", cfg.Scanner)
	}
	if cfg.Scanner.FallbackConfidence != 0.4 {
		t.Fatalf("expected default fallback confidence to survive, got %v", cfg.Scanner.FallbackConfidence)
	}
	if cfg.Rules.Path != filepath.Join(tempHome, "rules.toml") {
		t.Fatalf("unexpected rules path: %q", cfg.Rules.Path)
	}
	if cfg.Batch.Workers != 8 || cfg.Batch.BatchSize != 16 || !cfg.Batch.Refilter {
		t.Fatalf("unexpected batch config: %+v", cfg.Batch)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging values, got %+v", cfg.Logging)
	}
	if cfg.Logging.Dir != filepath.Join(tempHome, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Logging.Dir)
	}
}

func TestLoadEnvironmentFallbacks(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvStatePath, "~/env/state.sqlite")
	t.Setenv(config.EnvRulesPath, "~/env/rules.toml")
	t.Setenv(config.EnvLogLevel, "WARN")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Blacklist.StatePath != filepath.Join(tempHome, "env", "state.sqlite") {
		t.Fatalf("state path = %q", cfg.Blacklist.StatePath)
	}
	if cfg.Rules.Path != filepath.Join(tempHome, "env", "rules.toml") {
		t.Fatalf("rules path = %q", cfg.Rules.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvStatePath, "")
	t.Setenv(config.EnvRulesPath, "")
	t.Setenv(config.EnvLogLevel, "")

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"threshold above 100", "[blacklist]\nthreshold_percent = 120\n", "blacklist.threshold_percent"},
		{"threshold zero", "[blacklist]\nthreshold_percent = 0\n", "blacklist.threshold_percent"},
		{"warmup zero", "[blacklist]\nwarmup_min_docs = 0\n", "blacklist.warmup_min_docs"},
		{"negative window", "[scanner]\nwindow = -5\n", "scanner.window"},
		{"negative workers", "[batch]\nworkers = -1\n", "batch.workers"},
		{"bad format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"bad level", "[logging]\nlevel = \"loud\"\n", "logging.level"},
		{"unknown key", "[blacklist]\nthreshold = 50\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	var sample config.Config
	if err := toml.Unmarshal([]byte(config.SampleConfig()), &sample); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	def := config.Default()
	if sample.Blacklist != def.Blacklist {
		t.Fatalf("sample blacklist %+v differs from defaults %+v", sample.Blacklist, def.Blacklist)
	}
	if sample.Scanner != def.Scanner || sample.Batch != def.Batch || sample.Logging != def.Logging {
		t.Fatalf("sample config drifted from defaults: %+v", sample)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[blacklist]") {
		t.Fatalf("sample config missing blacklist section: %s", data)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected CreateSample to refuse overwriting")
	}
}
