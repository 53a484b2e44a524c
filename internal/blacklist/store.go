package blacklist

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ucextract/internal/failures"
	"ucextract/internal/logging"
)

// Store persists a State artifact between sessions.
type Store interface {
	// Load returns the stored artifact. found is false when nothing was
	// stored yet.
	Load(ctx context.Context) (a Artifact, found bool, err error)
	Save(ctx context.Context, a Artifact) error
	Path() string
	Close() error
}

// OpenStore picks a SQLite store for .db, .sqlite, and .sqlite3 paths and a
// JSON store otherwise.
//
// A database SQLite cannot read is renamed to <path>.corrupt and a fresh one
// is created in its place. When the database cannot be opened at all the
// returned store is a MemoryStore. Both cases return a usable store together
// with an ErrBlacklistPersistence error the caller should log.
func OpenStore(path string) (Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, failures.Wrap(failures.ErrConfiguration, "blacklist", "open store", "state path is empty", nil)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		store, err := OpenSQLiteStore(path)
		if err == nil {
			return store, nil
		}
		if errors.Is(err, ErrCorruptDatabase) {
			return replaceCorruptDatabase(path, err)
		}
		return NewMemoryStore(path), failures.Wrap(failures.ErrBlacklistPersistence, "blacklist", "open store",
			"state will not persist", err)
	default:
		return NewJSONStore(path), nil
	}
}

// CorruptPath is where a corrupt database at path is moved.
func CorruptPath(path string) string {
	return path + ".corrupt"
}

func replaceCorruptDatabase(path string, cause error) (Store, error) {
	aside := CorruptPath(path)
	if err := os.Rename(path, aside); err != nil {
		return NewMemoryStore(path), failures.Wrap(failures.ErrBlacklistPersistence, "blacklist", "open store",
			"corrupt database left in place, state will not persist", errors.Join(cause, err))
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return NewMemoryStore(path), failures.Wrap(failures.ErrBlacklistPersistence, "blacklist", "open store",
				"remove stale "+suffix+" file, state will not persist", err)
		}
	}
	store, err := OpenSQLiteStore(path)
	if err != nil {
		return NewMemoryStore(path), failures.Wrap(failures.ErrBlacklistPersistence, "blacklist", "open store",
			"recreate database, state will not persist", err)
	}
	return store, failures.Wrap(failures.ErrBlacklistPersistence, "blacklist", "open store",
		"corrupt database moved to "+aside, cause)
}

// Open builds a State from the store. A missing artifact yields an empty
// COLD state. An unreadable or corrupt artifact also yields an empty COLD
// state, returned together with an ErrBlacklistPersistence error the caller
// should log and otherwise ignore.
func Open(ctx context.Context, store Store, settings Settings, logger *slog.Logger) (*State, error) {
	logger = logging.NewComponentLogger(logger, "blacklist")
	state := NewState(settings)
	if store == nil {
		return state, nil
	}

	artifact, found, err := store.Load(ctx)
	if err != nil {
		return state, failures.Wrap(failures.ErrBlacklistPersistence, "blacklist", "load", store.Path(), err)
	}
	if !found {
		logger.Debug("no blacklist state found, starting cold", logging.String("path", store.Path()))
		return state, nil
	}
	change, err := state.Restore(artifact)
	if err != nil {
		return NewState(settings), failures.Wrap(failures.ErrBlacklistPersistence, "blacklist", "load", "corrupt state "+store.Path(), err)
	}

	logger.Debug("loaded blacklist state",
		logging.String("path", store.Path()),
		logging.Int("total_docs", state.TotalDocs()),
		logging.Int("tracked_codes", len(artifact.Frequency)),
		logging.String("phase", string(state.Phase())),
		logging.Int("added", len(change.Added)),
		logging.Int("removed", len(change.Removed)))
	return state, nil
}

// Save writes the state through store.
func Save(ctx context.Context, store Store, state *State) error {
	if store == nil || state == nil {
		return nil
	}
	if err := store.Save(ctx, state.Artifact()); err != nil {
		return failures.Wrap(failures.ErrBlacklistPersistence, "blacklist", "save", store.Path(), err)
	}
	return nil
}
