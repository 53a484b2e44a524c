package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"ucextract/internal/blacklist"
	"ucextract/internal/config"
)

func TestExtractFromStdin(t *testing.T) {
	env := setupCLITestEnv(t)
	text := "CNPJ: 12.345.678/0001-95 ... Nº da Instalação: 40112233 ... Nº do Cliente: 7011223"

	out, _, err := runCLI(t, []string{"extract", "--format", "jsonl", "--distributor", "Distribuidora X"}, env.configPath, text)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	results := decodeLines(t, out)
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	res := results[0]
	if !reflect.DeepEqual(res.UCs, []string{"40112233"}) || !reflect.DeepEqual(res.CustomerCodesDiscarded, []string{"7011223"}) {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Method != "anchored+default-rules" || res.Path != "-" {
		t.Fatalf("unexpected method/path %q %q", res.Method, res.Path)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &raw); err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	for _, key := range []string{"file", "status", "ucs", "uc_count", "customer_codes_discarded", "confidence", "method", "duration", "errors", "distributor", "blacklisted_ucs"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing key %q in %s", key, out)
		}
	}
}

func TestExtractCorpusLearnsBlacklist(t *testing.T) {
	env := setupCLITestEnv(t)
	corpusDir := filepath.Join(env.baseDir, "corpus")
	// Batches of four: the fourth batch is the first to see a warm blacklist.
	writeCorpus(t, corpusDir, "cemig", 14)

	out, _, err := runCLI(t, []string{"extract", "--format", "jsonl", "--distributor-from-dir", corpusDir}, env.configPath, "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	results := decodeLines(t, out)
	if len(results) != 14 {
		t.Fatalf("expected 14 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Distributor != "cemig" {
			t.Fatalf("expected cemig rules from directory name, got %q", res.Distributor)
		}
	}
	last := results[len(results)-1]
	if !reflect.DeepEqual(last.BlacklistedUCs, []string{"3099001122"}) || last.UCCount != 1 {
		t.Fatalf("expected boilerplate code to be blacklisted in the last batch: %+v", last)
	}

	data, err := os.ReadFile(env.statePath)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	var artifact blacklist.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if artifact.TotalDocs != 14 || !reflect.DeepEqual(artifact.Blacklist, []string{"3099001122"}) {
		t.Fatalf("unexpected artifact %+v", artifact)
	}

	// A second run starts warm and filters from the first document.
	out, _, err = runCLI(t, []string{"extract", "--format", "jsonl", "--distributor", "cemig", filepath.Join(corpusDir, "cemig", "contrato-00.txt")}, env.configPath, "")
	if err != nil {
		t.Fatalf("second extract: %v", err)
	}
	results = decodeLines(t, out)
	if !reflect.DeepEqual(results[0].BlacklistedUCs, []string{"3099001122"}) {
		t.Fatalf("expected persisted blacklist to apply, got %+v", results[0])
	}
}

func TestExtractNoBlacklistLeavesStateUntouched(t *testing.T) {
	env := setupCLITestEnv(t)
	corpusDir := filepath.Join(env.baseDir, "corpus")
	writeCorpus(t, corpusDir, "cemig", 3)

	out, _, err := runCLI(t, []string{"extract", "--no-blacklist", "--format", "csv", "-d", "cemig", corpusDir}, env.configPath, "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	requireContains(t, out, "File,Distributor,Status,UCs")
	requireContains(t, out, "contrato-00.txt,cemig,SUCCESS")
	if _, err := os.Stat(env.statePath); !os.IsNotExist(err) {
		t.Fatalf("expected no state file, stat err = %v", err)
	}
}

func TestExtractOutputFileAndTable(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "results.jsonl")

	if _, _, err := runCLI(t, []string{"extract", "--no-blacklist", "-o", target}, env.configPath, "UC 40112233"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if results := decodeLines(t, string(data)); len(results) != 1 || results[0].UCCount != 1 {
		t.Fatalf("unexpected output file content %s", data)
	}

	out, _, err := runCLI(t, []string{"extract", "--no-blacklist", "--format", "table"}, env.configPath, "UC 40112233")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	requireContains(t, out, "40112233")
	requireContains(t, out, "1 documents: 1 with codes, 0 empty, 0 failed")
}

func TestExtractReportsMalformedInput(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"extract", "--no-blacklist", "--format", "jsonl"}, env.configPath, "   ")
	if err != nil {
		t.Fatalf("a malformed document must not fail the run: %v", err)
	}
	results := decodeLines(t, out)
	if len(results) != 1 || results[0].Status != "ERROR" || len(results[0].Errors) == 0 {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestExtractRejectsUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"extract", "--format", "xml"}, env.configPath, "UC 1234567"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestExtractSurvivesCorruptStateDatabase(t *testing.T) {
	env := setupCLITestEnv(t)
	dbPath := filepath.Join(env.baseDir, "state", "blacklist.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dbPath, []byte(strings.Repeat("garbage ", 600)), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvStatePath, dbPath)

	out, _, err := runCLI(t, []string{"extract", "--format", "jsonl"}, env.configPath, "Nº da Instalação: 40112233")
	if err != nil {
		t.Fatalf("a corrupt state database must not fail the run: %v", err)
	}
	results := decodeLines(t, out)
	if len(results) != 1 || !reflect.DeepEqual(results[0].UCs, []string{"40112233"}) {
		t.Fatalf("unexpected results %+v", results)
	}
	if _, err := os.Stat(blacklist.CorruptPath(dbPath)); err != nil {
		t.Fatalf("corrupt database not kept aside: %v", err)
	}

	store, err := blacklist.OpenStore(dbPath)
	if err != nil {
		t.Fatalf("replacement database unusable: %v", err)
	}
	defer store.Close()
	state, err := blacklist.Open(t.Context(), store, blacklist.DefaultSettings(), nil)
	if err != nil || state.TotalDocs() != 1 {
		t.Fatalf("expected the run to persist one document, got %d (err %v)", state.TotalDocs(), err)
	}
}
