package blacklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"ucextract/internal/fileutil"
)

const lockRetryDelay = 25 * time.Millisecond

// JSONStore keeps the artifact in one JSON file. An advisory lock on a
// sibling ".lock" file serializes concurrent sessions.
type JSONStore struct {
	path string
	lock *flock.Flock
}

// NewJSONStore returns a store for path. Nothing is created until Save.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the artifact path.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the artifact under a shared lock.
func (s *JSONStore) Load(ctx context.Context) (Artifact, bool, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Artifact{}, false, nil
		}
		return Artifact{}, false, fmt.Errorf("stat state file: %w", err)
	}

	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return Artifact{}, false, fmt.Errorf("lock state file: %w", err)
	}
	if !locked {
		return Artifact{}, false, errors.New("lock state file: not acquired")
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Artifact{}, false, nil
		}
		return Artifact{}, false, fmt.Errorf("read state file: %w", err)
	}
	if len(data) == 0 {
		return Artifact{}, false, nil
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return Artifact{}, false, fmt.Errorf("parse state file: %w", err)
	}
	return artifact, true, nil
}

// Save writes the artifact atomically under an exclusive lock.
func (s *JSONStore) Save(ctx context.Context, a Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}
	if !locked {
		return errors.New("lock state file: not acquired")
	}
	defer func() { _ = s.lock.Unlock() }()

	return fileutil.WriteFileAtomic(s.path, data, 0o644)
}

// Close releases the lock handle.
func (s *JSONStore) Close() error {
	return s.lock.Close()
}
