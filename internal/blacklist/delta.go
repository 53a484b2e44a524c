package blacklist

// Delta accumulates document-level code presence for one worker. It is not
// safe for concurrent use; give each worker its own.
type Delta struct {
	frequency map[string]int
	docs      int
}

// NewDelta returns an empty delta.
func NewDelta() *Delta {
	return &Delta{frequency: make(map[string]int)}
}

// Add records one document. Each distinct code counts once no matter how
// often it repeats inside the document.
func (d *Delta) Add(codes []string) {
	d.docs++
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		d.frequency[code]++
	}
}

// Merge adds other into d. Merging is commutative and associative.
func (d *Delta) Merge(other *Delta) {
	if other == nil {
		return
	}
	d.docs += other.docs
	for code, n := range other.frequency {
		d.frequency[code] += n
	}
}

// Docs returns the number of documents recorded.
func (d *Delta) Docs() int {
	return d.docs
}

// Empty reports whether no document was recorded.
func (d *Delta) Empty() bool {
	return d.docs == 0
}

// Frequency returns a copy of the per-code document counts.
func (d *Delta) Frequency() map[string]int {
	out := make(map[string]int, len(d.frequency))
	for code, n := range d.frequency {
		out[code] = n
	}
	return out
}
