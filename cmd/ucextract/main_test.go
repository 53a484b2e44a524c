package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ucextract/internal/config"
	"ucextract/internal/extractor"
)

type cliTestEnv struct {
	configPath string
	statePath  string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv(config.EnvStatePath, "")
	t.Setenv(config.EnvRulesPath, "")
	t.Setenv(config.EnvLogLevel, "")

	env := &cliTestEnv{
		configPath: filepath.Join(base, "config.toml"),
		statePath:  filepath.Join(base, "state", "blacklist.json"),
		baseDir:    base,
	}
	content := fmt.Sprintf("[blacklist]\nstate_path = %q\n\n[batch]\nworkers = 2\nbatch_size = 4\n\n[logging]\nlevel = \"error\"\n", env.statePath)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func decodeLines(t *testing.T, out string) []extractor.Result {
	t.Helper()
	var results []extractor.Result
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var res extractor.Result
		if err := json.Unmarshal([]byte(line), &res); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		results = append(results, res)
	}
	return results
}

// writeCorpus creates n contracts under dir/<distributor>/ sharing one
// boilerplate code.
func writeCorpus(t *testing.T, dir, distributor string, n int) {
	t.Helper()
	target := filepath.Join(dir, distributor)
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatalf("mkdir corpus: %v", err)
	}
	for i := range n {
		text := fmt.Sprintf("CONTRATO DE ADESÃO\nNº da Instalação: 30%08d\nCódigo da UC: 3099001122\n", 11223300+i)
		path := filepath.Join(target, fmt.Sprintf("contrato-%02d.txt", i))
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			t.Fatalf("write corpus file: %v", err)
		}
	}
}
