package blacklist

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStore holds the artifact for the life of the process. It stands in
// when the configured state file cannot be used.
type MemoryStore struct {
	mu       sync.Mutex
	path     string
	artifact Artifact
	found    bool
}

// NewMemoryStore returns an empty store that reports path as its location.
func NewMemoryStore(path string) *MemoryStore {
	return &MemoryStore{path: path}
}

// Path returns the location the store stands in for.
func (s *MemoryStore) Path() string {
	return s.path
}

// Load returns the last saved artifact.
func (s *MemoryStore) Load(context.Context) (Artifact, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyArtifact(s.artifact), s.found, nil
}

// Save keeps a copy of a.
func (s *MemoryStore) Save(_ context.Context, a Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifact = copyArtifact(a)
	s.found = true
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func copyArtifact(a Artifact) Artifact {
	return Artifact{
		Blacklist: slices.Clone(a.Blacklist),
		Frequency: maps.Clone(a.Frequency),
		TotalDocs: a.TotalDocs,
	}
}
