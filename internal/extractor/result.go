package extractor

import (
	"math"
	"slices"
)

// Status summarizes one extraction.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusEmpty   Status = "EMPTY"
	StatusError   Status = "ERROR"
)

// Method values record which strategy supplied the accepted codes.
const (
	MethodAnchored = "anchored"
	MethodFallback = "fallback-pattern"
	MethodNone     = "none"

	// defaultRulesSuffix marks results produced with the default rule set
	// because the distributor label was not recognized.
	defaultRulesSuffix = "+default-rules"
)

// Document is one unit of input text.
type Document struct {
	Text        string
	Distributor string
	Path        string
	// Err records why the text could not be read. Extract reports such a
	// document as an ERROR result.
	Err error
}

// Filter decides whether an accepted installation code is withheld as
// corpus noise. *blacklist.Snapshot implements it.
type Filter interface {
	IsBlacklisted(code string) bool
}

// Result is the outcome of extracting one document.
type Result struct {
	File                   string   `json:"file"`
	Path                   string   `json:"path"`
	Status                 Status   `json:"status"`
	UCs                    []string `json:"ucs"`
	UCCount                int      `json:"uc_count"`
	CustomerCodesDiscarded []string `json:"customer_codes_discarded"`
	Confidence             float64  `json:"confidence"`
	Method                 string   `json:"method"`
	Duration               float64  `json:"duration"`
	Errors                 []string `json:"errors"`
	Distributor            string   `json:"distributor"`
	BlacklistedUCs         []string `json:"blacklisted_ucs"`

	// observed holds every accepted installation code in first-seen order,
	// before blacklist filtering, with its best confidence.
	observed    []string
	confidences map[string]float64
	strategy    string
	defaulted   bool
}

// ObservedCodes returns the installation codes that passed validation,
// blacklisted or not. These are the codes a corpus frequency table counts.
func (r Result) ObservedCodes() []string {
	return slices.Clone(r.observed)
}

// Counted reports whether the result should contribute to corpus
// frequencies. Failed extractions say nothing about the corpus.
func (r Result) Counted() bool {
	return r.Status != StatusError
}

// applyFilter splits observed codes into ucs and blacklisted codes and
// derives the status, count, confidence, and method.
func (r *Result) applyFilter(filter Filter) {
	r.UCs = make([]string, 0, len(r.observed))
	r.BlacklistedUCs = make([]string, 0)
	for _, code := range r.observed {
		if filter != nil && filter.IsBlacklisted(code) {
			r.BlacklistedUCs = append(r.BlacklistedUCs, code)
			continue
		}
		r.UCs = append(r.UCs, code)
	}
	r.UCCount = len(r.UCs)

	r.Confidence = 0
	if r.UCCount > 0 {
		var sum float64
		for _, code := range r.UCs {
			sum += r.confidences[code]
		}
		r.Confidence = math.Round(sum/float64(r.UCCount)*1000) / 1000
	}

	r.Method = MethodNone
	if r.UCCount > 0 {
		r.Method = r.strategy
		r.Status = StatusSuccess
	} else {
		r.Status = StatusEmpty
	}
	if r.defaulted {
		r.Method += defaultRulesSuffix
	}
}

// Refilter re-applies a newer filter to a finished result without
// rescanning the text. Failed results are returned unchanged.
func Refilter(r Result, filter Filter) Result {
	if r.Status == StatusError {
		return r
	}
	r.observed = slices.Clone(r.observed)
	r.applyFilter(filter)
	return r
}
