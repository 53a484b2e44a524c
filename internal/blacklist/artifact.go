package blacklist

import (
	"encoding/json"
	"fmt"
)

// Artifact is the persisted form of a State. Codes are opaque strings.
type Artifact struct {
	Blacklist []string       `json:"blacklist"`
	Frequency map[string]int `json:"frequency"`
	TotalDocs int            `json:"total_docs"`
}

// Validate rejects artifacts no State could have produced.
func (a Artifact) Validate() error {
	if a.TotalDocs < 0 {
		return fmt.Errorf("total_docs is negative (%d)", a.TotalDocs)
	}
	for code, n := range a.Frequency {
		if code == "" {
			return fmt.Errorf("frequency holds an empty code")
		}
		if n < 0 || n > a.TotalDocs {
			return fmt.Errorf("frequency of %q is %d with total_docs %d", code, n, a.TotalDocs)
		}
	}
	return nil
}

// MarshalJSON writes empty collections as [] and {} instead of null.
func (a Artifact) MarshalJSON() ([]byte, error) {
	type plain Artifact
	out := plain(a)
	if out.Blacklist == nil {
		out.Blacklist = []string{}
	}
	if out.Frequency == nil {
		out.Frequency = map[string]int{}
	}
	return json.Marshal(out)
}
