package blacklist_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"ucextract/internal/blacklist"
	"ucextract/internal/failures"
	"ucextract/internal/logging"
)

func warmState(t *testing.T) *blacklist.State {
	t.Helper()
	state := blacklist.NewState(blacklist.Settings{ThresholdPercent: 80, WarmupMin: 3})
	state.UpdateFrequency([]string{"900100", "400112"})
	state.UpdateFrequency([]string{"900100"})
	state.UpdateFrequency([]string{"900100", "765432"})
	state.Analyze()
	if !state.IsBlacklisted("900100") {
		t.Fatal("fixture should blacklist 900100")
	}
	return state
}

func TestStoresRoundTrip(t *testing.T) {
	for _, name := range []string{"state.json", "state.db"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "nested", name)
			store, err := blacklist.OpenStore(path)
			if err != nil {
				t.Fatalf("OpenStore failed: %v", err)
			}
			defer store.Close()

			original := warmState(t)
			if err := blacklist.Save(ctx, store, original); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			loaded, err := blacklist.Open(ctx, store, original.Settings(), logging.NewNop())
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !reflect.DeepEqual(loaded.Artifact(), original.Artifact()) {
				t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", loaded.Artifact(), original.Artifact())
			}
			if loaded.Phase() != blacklist.PhaseWarm || !loaded.IsBlacklisted("900100") {
				t.Fatal("loaded state should be warm with the same blacklist")
			}

			// A second save replaces, never appends.
			original.UpdateFrequency([]string{"111111"})
			original.Analyze()
			if err := blacklist.Save(ctx, store, original); err != nil {
				t.Fatal(err)
			}
			reloaded, err := blacklist.Open(ctx, store, original.Settings(), nil)
			if err != nil {
				t.Fatal(err)
			}
			if reloaded.TotalDocs() != 4 || reloaded.Frequency("111111") != 1 {
				t.Fatalf("unexpected reloaded counts: %+v", reloaded.Artifact())
			}
		})
	}
}

func TestJSONArtifactFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.json")
	store := blacklist.NewJSONStore(path)
	defer store.Close()
	if err := blacklist.Save(context.Background(), store, warmState(t)); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"blacklist", "frequency", "total_docs"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("artifact missing key %q: %s", key, data)
		}
	}
	if string(raw["blacklist"]) != `["900100"]` && string(raw["blacklist"]) != "[\n    \"900100\"\n  ]" {
		t.Fatalf("unexpected blacklist encoding %s", raw["blacklist"])
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	emptyStore := blacklist.NewJSONStore(empty)
	defer emptyStore.Close()
	if err := blacklist.Save(context.Background(), emptyStore, blacklist.NewState(blacklist.DefaultSettings())); err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(empty)
	if err != nil {
		t.Fatal(err)
	}
	var decoded blacklist.Artifact
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Blacklist == nil || decoded.Frequency == nil {
		t.Fatalf("empty collections should encode as [] and {}: %s", data)
	}
}

func TestOpenMissingFileStartsCold(t *testing.T) {
	store := blacklist.NewJSONStore(filepath.Join(t.TempDir(), "absent", "state.json"))
	defer store.Close()
	state, err := blacklist.Open(context.Background(), store, blacklist.DefaultSettings(), nil)
	if err != nil {
		t.Fatalf("expected no error for a missing file, got %v", err)
	}
	if state.Phase() != blacklist.PhaseCold || state.TotalDocs() != 0 {
		t.Fatal("expected an empty cold state")
	}
}

func TestOpenCorruptFileStartsColdWithError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{not json"},
		{"impossible counts", `{"blacklist":[],"frequency":{"123456":5},"total_docs":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			store := blacklist.NewJSONStore(path)
			defer store.Close()

			state, err := blacklist.Open(context.Background(), store, blacklist.DefaultSettings(), nil)
			if !errors.Is(err, failures.ErrBlacklistPersistence) {
				t.Fatalf("expected persistence error, got %v", err)
			}
			if state == nil || state.Phase() != blacklist.PhaseCold || state.TotalDocs() != 0 {
				t.Fatal("expected a usable empty cold state")
			}
		})
	}
}

func TestSaveToUnwritableLocation(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := blacklist.NewJSONStore(filepath.Join(blocker, "state.json"))
	err := blacklist.Save(context.Background(), store, warmState(t))
	if !errors.Is(err, failures.ErrBlacklistPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestOpenStoreSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	jsonStore, err := blacklist.OpenStore(filepath.Join(dir, "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	defer jsonStore.Close()
	if _, ok := jsonStore.(*blacklist.JSONStore); !ok {
		t.Fatalf("expected JSONStore, got %T", jsonStore)
	}

	sqliteStore, err := blacklist.OpenStore(filepath.Join(dir, "state.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer sqliteStore.Close()
	if _, ok := sqliteStore.(*blacklist.SQLiteStore); !ok {
		t.Fatalf("expected SQLiteStore, got %T", sqliteStore)
	}

	if _, err := blacklist.OpenStore("  "); !errors.Is(err, failures.ErrConfiguration) {
		t.Fatalf("expected configuration error for empty path, got %v", err)
	}
}

func TestSQLiteEmptyDatabaseIsCold(t *testing.T) {
	store, err := blacklist.OpenSQLiteStore(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	_, found, err := store.Load(context.Background())
	if err != nil || found {
		t.Fatalf("Load() = found %v, err %v; want nothing stored", found, err)
	}
}

func TestOpenStoreReplacesCorruptDatabase(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, path string)
	}{
		{"garbage bytes", func(t *testing.T, path string) {
			if err := os.WriteFile(path, []byte(strings.Repeat("not a database ", 400)), 0o644); err != nil {
				t.Fatal(err)
			}
		}},
		{"newer schema", func(t *testing.T, path string) {
			store, err := blacklist.OpenSQLiteStore(path)
			if err != nil {
				t.Fatal(err)
			}
			_ = store.Close()
			db, err := sql.Open("sqlite", path)
			if err != nil {
				t.Fatal(err)
			}
			_, err = db.Exec("UPDATE schema_version SET version = 99")
			_ = db.Close()
			if err != nil {
				t.Fatal(err)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "state.db")
			tt.prepare(t, path)

			store, err := blacklist.OpenStore(path)
			if !errors.Is(err, failures.ErrBlacklistPersistence) {
				t.Fatalf("expected persistence error, got %v", err)
			}
			if _, ok := store.(*blacklist.SQLiteStore); !ok {
				t.Fatalf("expected a fresh SQLiteStore, got %T", store)
			}
			defer store.Close()
			if _, statErr := os.Stat(blacklist.CorruptPath(path)); statErr != nil {
				t.Fatalf("corrupt database not moved aside: %v", statErr)
			}

			state, err := blacklist.Open(ctx, store, blacklist.DefaultSettings(), logging.NewNop())
			if err != nil {
				t.Fatalf("Open on the replacement database failed: %v", err)
			}
			if state.Phase() != blacklist.PhaseCold || state.TotalDocs() != 0 {
				t.Fatal("expected an empty cold state")
			}

			original := warmState(t)
			if err := blacklist.Save(ctx, store, original); err != nil {
				t.Fatalf("Save after replacement failed: %v", err)
			}
			loaded, err := blacklist.Open(ctx, store, original.Settings(), logging.NewNop())
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(loaded.Artifact(), original.Artifact()) {
				t.Fatalf("got %+v want %+v", loaded.Artifact(), original.Artifact())
			}
		})
	}
}

func TestOpenStoreFallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := blacklist.OpenStore(filepath.Join(blocker, "state.db"))
	if !errors.Is(err, failures.ErrBlacklistPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if _, ok := store.(*blacklist.MemoryStore); !ok {
		t.Fatalf("expected MemoryStore, got %T", store)
	}
	defer store.Close()

	state, err := blacklist.Open(ctx, store, blacklist.DefaultSettings(), nil)
	if err != nil || state.TotalDocs() != 0 {
		t.Fatalf("Open() = %d docs, err %v; want empty state", state.TotalDocs(), err)
	}
	original := warmState(t)
	if err := blacklist.Save(ctx, store, original); err != nil {
		t.Fatal(err)
	}
	original.UpdateFrequency([]string{"222222"})
	loaded, err := blacklist.Open(ctx, store, original.Settings(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.TotalDocs() != 3 || !loaded.IsBlacklisted("900100") {
		t.Fatalf("memory store lost or shared state: %+v", loaded.Artifact())
	}
}
