package blacklist

import (
	"fmt"
	"sort"
	"sync"
)

// Phase is the learning phase of a State.
type Phase string

const (
	// PhaseCold means too few documents were counted to judge frequency.
	PhaseCold Phase = "COLD"
	// PhaseWarm means Analyze recomputes the blacklist.
	PhaseWarm Phase = "WARM"
)

const (
	DefaultThresholdPercent = 80.0
	DefaultWarmupMin        = 10
)

// Settings are the admission parameters of a State.
type Settings struct {
	// ThresholdPercent is the share of documents, 0-100, a code must appear
	// in to be blacklisted.
	ThresholdPercent float64
	// WarmupMin is the corpus size below which nothing is blacklisted.
	WarmupMin int
}

// DefaultSettings returns the stock admission parameters.
func DefaultSettings() Settings {
	return Settings{ThresholdPercent: DefaultThresholdPercent, WarmupMin: DefaultWarmupMin}
}

// Validate checks that the settings describe a usable threshold.
func (s Settings) Validate() error {
	if s.ThresholdPercent <= 0 || s.ThresholdPercent > 100 {
		return fmt.Errorf("threshold_percent must be in (0, 100], got %v", s.ThresholdPercent)
	}
	if s.WarmupMin < 1 {
		return fmt.Errorf("warmup_min_docs must be at least 1, got %d", s.WarmupMin)
	}
	return nil
}

// Change lists the codes Analyze added to and removed from the blacklist.
type Change struct {
	Added   []string
	Removed []string
}

// Empty reports whether Analyze left the blacklist unchanged.
func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// CodeStat describes one tracked code.
type CodeStat struct {
	Code        string  `json:"code"`
	Documents   int     `json:"documents"`
	Percent     float64 `json:"percent"`
	Blacklisted bool    `json:"blacklisted"`
}

// State is the corpus-wide frequency table and the blacklist derived from it.
// It is safe for concurrent use.
type State struct {
	mu        sync.RWMutex
	settings  Settings
	frequency map[string]int
	totalDocs int
	blacklist map[string]struct{}
}

// NewState returns an empty COLD state.
func NewState(settings Settings) *State {
	return &State{
		settings:  settings,
		frequency: make(map[string]int),
		blacklist: make(map[string]struct{}),
	}
}

// Settings returns the admission parameters.
func (s *State) Settings() Settings {
	return s.settings
}

// UpdateFrequency counts one document. Every distinct code is counted,
// blacklisted or not, so membership can later be revoked.
func (s *State) UpdateFrequency(codes []string) {
	d := NewDelta()
	d.Add(codes)
	s.Merge(d)
}

// Merge adds a worker delta to the frequency table. It does not recompute
// the blacklist; call Analyze afterwards.
func (s *State) Merge(d *Delta) {
	if d == nil || d.Empty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalDocs += d.docs
	for code, n := range d.frequency {
		s.frequency[code] += n
	}
}

// Analyze recomputes the blacklist. While COLD the blacklist is empty.
func (s *State) Analyze() Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]struct{})
	if s.totalDocs >= s.settings.WarmupMin {
		for code, n := range s.frequency {
			if s.admits(n) {
				next[code] = struct{}{}
			}
		}
	}

	var change Change
	for code := range next {
		if _, ok := s.blacklist[code]; !ok {
			change.Added = append(change.Added, code)
		}
	}
	for code := range s.blacklist {
		if _, ok := next[code]; !ok {
			change.Removed = append(change.Removed, code)
		}
	}
	sort.Strings(change.Added)
	sort.Strings(change.Removed)
	s.blacklist = next
	return change
}

// admits compares in integer-scaled form: n/total >= threshold/100.
func (s *State) admits(n int) bool {
	return float64(n)*100 >= s.settings.ThresholdPercent*float64(s.totalDocs)
}

// IsBlacklisted reports current membership.
func (s *State) IsBlacklisted(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blacklist[code]
	return ok
}

// Phase reports whether enough documents were counted to blacklist codes.
func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phaseLocked()
}

func (s *State) phaseLocked() Phase {
	if s.totalDocs >= s.settings.WarmupMin {
		return PhaseWarm
	}
	return PhaseCold
}

// TotalDocs returns the number of documents counted.
func (s *State) TotalDocs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalDocs
}

// Frequency returns the number of documents that contained code.
func (s *State) Frequency(code string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frequency[code]
}

// Snapshot captures the current blacklist for filtering.
func (s *State) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make(map[string]struct{}, len(s.blacklist))
	for code := range s.blacklist {
		codes[code] = struct{}{}
	}
	return &Snapshot{codes: codes, totalDocs: s.totalDocs, phase: s.phaseLocked()}
}

// Top returns up to n codes ordered by document count, then code. n <= 0
// returns every code.
func (s *State) Top(n int) []CodeStat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := make([]CodeStat, 0, len(s.frequency))
	for code, docs := range s.frequency {
		_, listed := s.blacklist[code]
		percent := 0.0
		if s.totalDocs > 0 {
			percent = float64(docs) * 100 / float64(s.totalDocs)
		}
		stats = append(stats, CodeStat{Code: code, Documents: docs, Percent: percent, Blacklisted: listed})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Documents != stats[j].Documents {
			return stats[i].Documents > stats[j].Documents
		}
		return stats[i].Code < stats[j].Code
	})
	if n > 0 && len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

// Reset forgets every count and returns the state to COLD.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frequency = make(map[string]int)
	s.blacklist = make(map[string]struct{})
	s.totalDocs = 0
}

// Artifact exports the state for persistence.
func (s *State) Artifact() Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	freq := make(map[string]int, len(s.frequency))
	for code, n := range s.frequency {
		freq[code] = n
	}
	return Artifact{
		Blacklist: sortedKeys(s.blacklist),
		Frequency: freq,
		TotalDocs: s.totalDocs,
	}
}

// Restore replaces the counts with those of a, then re-analyzes under the
// current settings. The persisted blacklist is not trusted because the
// threshold may have changed since it was written.
func (s *State) Restore(a Artifact) (Change, error) {
	if err := a.Validate(); err != nil {
		return Change{}, err
	}
	s.mu.Lock()
	s.totalDocs = a.TotalDocs
	s.frequency = make(map[string]int, len(a.Frequency))
	for code, n := range a.Frequency {
		s.frequency[code] = n
	}
	s.blacklist = make(map[string]struct{}, len(a.Blacklist))
	for _, code := range a.Blacklist {
		s.blacklist[code] = struct{}{}
	}
	s.mu.Unlock()
	return s.Analyze(), nil
}
