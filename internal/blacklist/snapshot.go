package blacklist

import "sort"

// Snapshot is an immutable view of the blacklist taken at one point in time.
// A nil Snapshot blacklists nothing.
type Snapshot struct {
	codes     map[string]struct{}
	totalDocs int
	phase     Phase
}

// IsBlacklisted reports whether code was blacklisted when the snapshot was
// taken.
func (s *Snapshot) IsBlacklisted(code string) bool {
	if s == nil {
		return false
	}
	_, ok := s.codes[code]
	return ok
}

// Len returns the number of blacklisted codes.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.codes)
}

// Codes returns the blacklisted codes in sorted order.
func (s *Snapshot) Codes() []string {
	if s == nil {
		return nil
	}
	return sortedKeys(s.codes)
}

// TotalDocs returns the corpus size at snapshot time.
func (s *Snapshot) TotalDocs() int {
	if s == nil {
		return 0
	}
	return s.totalDocs
}

// Phase returns the state phase at snapshot time.
func (s *Snapshot) Phase() Phase {
	if s == nil {
		return PhaseCold
	}
	return s.phase
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
