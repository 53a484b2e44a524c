package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"ucextract/internal/failures"
	"ucextract/internal/logging"
	"ucextract/internal/negative"
	"ucextract/internal/rules"
	"ucextract/internal/scanner"
	"ucextract/internal/taxid"
)

// Extractor runs the extraction pipeline. It holds no per-document state and
// is safe for concurrent use.
type Extractor struct {
	registry  *rules.Registry
	validator *negative.Validator
	scan      scanner.Options
	fallback  bool
	logger    *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithScannerOptions overrides the scan window and fallback confidence.
func WithScannerOptions(opts scanner.Options) Option {
	return func(e *Extractor) {
		e.scan = opts
	}
}

// WithFallback enables or disables the bare-digit fallback pass.
func WithFallback(enabled bool) Option {
	return func(e *Extractor) {
		e.fallback = enabled
	}
}

// WithLogger sets the logger used for per-document debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New returns an Extractor over registry. A nil registry uses the built-in
// rule sets.
func New(registry *rules.Registry, opts ...Option) *Extractor {
	if registry == nil {
		registry = rules.MustBuiltin()
	}
	e := &Extractor{
		registry:  registry,
		validator: negative.New(),
		scan:      scanner.DefaultOptions(),
		fallback:  true,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "extractor")
	return e
}

// Extract processes one document. filter may be nil.
func (e *Extractor) Extract(ctx context.Context, doc Document, filter Filter) (result Result) {
	start := time.Now()
	result = Result{
		Path:                   doc.Path,
		UCs:                    []string{},
		CustomerCodesDiscarded: []string{},
		Errors:                 []string{},
		BlacklistedUCs:         []string{},
	}
	if doc.Path != "" {
		result.File = filepath.Base(doc.Path)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("extractor: extract: panic: %v", rec)
			logging.ErrorWithContext(e.logger, "extraction panicked", "extraction_panic",
				logging.Alert("panic_recovered"),
				logging.String(logging.FieldErrorHint, "report the document so the scanner can be fixed"),
				logging.String("path", doc.Path),
				logging.Any("panic", rec),
				logging.String("stack", string(debug.Stack())))
			result = failed(result, err)
		}
		result.Duration = time.Since(start).Seconds()
	}()

	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return failed(result, fmt.Errorf("extractor: extract: %w", err))
		}
	}
	if doc.Err != nil {
		return failed(result, failures.Wrap(failures.ErrMalformedInput, "extractor", "read", "document unreadable", doc.Err))
	}
	if !utf8.ValidString(doc.Text) {
		return failed(result, failures.Wrap(failures.ErrMalformedInput, "extractor", "decode", "text is not valid UTF-8", nil))
	}
	if strings.TrimSpace(doc.Text) == "" {
		return failed(result, failures.Wrap(failures.ErrMalformedInput, "extractor", "decode", "empty text", nil))
	}

	resolution := e.registry.Resolve(doc.Distributor)
	rs := resolution.RuleSet
	result.Distributor = rs.Name
	result.defaulted = !resolution.Found()

	masked := taxid.Mask(doc.Text)

	anchored := scanner.ScanAnchored(masked, rs, e.scan)
	accepted, rejected := e.validator.Filter(masked, anchored, rs)

	var installs, customers []scanner.Candidate
	for _, c := range accepted {
		if c.Kind == scanner.KindCustomer {
			customers = append(customers, c)
		} else {
			installs = append(installs, c)
		}
	}
	result.strategy = MethodAnchored

	if len(installs) == 0 && e.fallback {
		fallback := scanner.ScanFallback(masked, rs, e.scan)
		fbAccepted, fbRejected := e.validator.Filter(masked, fallback, rs)
		for reason, n := range fbRejected {
			rejected[reason] += n
		}
		customerSet := valueSet(customers)
		for _, c := range fbAccepted {
			switch {
			case c.Kind == scanner.KindCustomer:
				customers = append(customers, c)
			case customerSet[c.Value]:
				// Already read from a customer field.
			default:
				installs = append(installs, c)
			}
		}
		result.strategy = MethodFallback
		e.logger.Debug("fallback scan",
			logging.Args(append(logging.DecisionAttrs("fallback", "used", "no anchored installation code"),
				logging.String("path", doc.Path),
				logging.Int("candidates", len(fallback)))...)...)
	}

	result.observed, result.confidences = dedupe(installs)
	installSet := make(map[string]bool, len(result.observed))
	for _, code := range result.observed {
		installSet[code] = true
	}
	seenCustomer := make(map[string]bool)
	for _, c := range customers {
		if installSet[c.Value] || seenCustomer[c.Value] {
			continue
		}
		seenCustomer[c.Value] = true
		result.CustomerCodesDiscarded = append(result.CustomerCodesDiscarded, c.Value)
	}

	result.applyFilter(filter)

	e.logger.Debug("document extracted",
		logging.String("path", doc.Path),
		logging.String("distributor", rs.Name),
		logging.String("distributor_match", string(resolution.Match)),
		logging.String("status", string(result.Status)),
		logging.String("method", result.Method),
		logging.Int("candidates", len(anchored)),
		logging.Int("rejected", sumCounts(rejected)),
		logging.Int("uc_count", result.UCCount),
		logging.Float64("confidence", result.Confidence),
		logging.Int("blacklisted", len(result.BlacklistedUCs)))
	return result
}

func failed(result Result, err error) Result {
	result.Status = StatusError
	result.Method = MethodNone
	result.UCs = []string{}
	result.CustomerCodesDiscarded = []string{}
	result.UCCount = 0
	result.Confidence = 0
	result.BlacklistedUCs = []string{}
	result.observed = nil
	result.Errors = append(result.Errors, err.Error())
	return result
}

// dedupe keeps the first occurrence of each value and its best confidence.
func dedupe(cands []scanner.Candidate) ([]string, map[string]float64) {
	order := make([]string, 0, len(cands))
	best := make(map[string]float64, len(cands))
	for _, c := range cands {
		prev, seen := best[c.Value]
		if !seen {
			order = append(order, c.Value)
		}
		if !seen || c.Confidence > prev {
			best[c.Value] = c.Confidence
		}
	}
	return order, best
}

func valueSet(cands []scanner.Candidate) map[string]bool {
	out := make(map[string]bool, len(cands))
	for _, c := range cands {
		out[c.Value] = true
	}
	return out
}

func sumCounts(counts map[negative.Reason]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
