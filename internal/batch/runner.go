package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ucextract/internal/blacklist"
	"ucextract/internal/extractor"
	"ucextract/internal/logging"
)

const (
	DefaultWorkers   = 4
	DefaultBatchSize = 64
)

// EmitFunc receives finished results in input order. Returning an error
// stops the run.
type EmitFunc func(extractor.Result) error

// Options tune a Runner.
type Options struct {
	Workers   int
	BatchSize int
	// Refilter holds every result until the run ends and filters it against
	// the final blacklist instead of the per-batch snapshot.
	Refilter bool
	Logger   *slog.Logger
}

// Runner drives an Extractor over many documents. The blacklist state and
// store are optional; without a state no code is ever filtered or counted.
type Runner struct {
	extractor *extractor.Extractor
	state     *blacklist.State
	store     blacklist.Store
	workers   int
	batchSize int
	refilter  bool
	logger    *slog.Logger
}

// Summary describes a finished or interrupted run.
type Summary struct {
	RunID        string          `json:"run_id"`
	Documents    int             `json:"documents"`
	Succeeded    int             `json:"succeeded"`
	Empty        int             `json:"empty"`
	Failed       int             `json:"failed"`
	UCs          int             `json:"ucs"`
	Batches      int             `json:"batches"`
	Blacklisted  int             `json:"blacklisted"`
	Phase        blacklist.Phase `json:"phase,omitempty"`
	TotalDocs    int             `json:"total_docs"`
	Added        []string        `json:"added"`
	Removed      []string        `json:"removed"`
	SaveFailures int             `json:"save_failures"`
	Duration     time.Duration   `json:"duration"`
}

// New returns a Runner. state and store may be nil.
func New(ex *extractor.Extractor, state *blacklist.State, store blacklist.Store, opts Options) *Runner {
	if ex == nil {
		ex = extractor.New(nil)
	}
	r := &Runner{
		extractor: ex,
		state:     state,
		store:     store,
		workers:   opts.Workers,
		batchSize: opts.BatchSize,
		refilter:  opts.Refilter,
		logger:    logging.NewComponentLogger(opts.Logger, "batch"),
	}
	if r.workers <= 0 {
		r.workers = DefaultWorkers
	}
	if r.batchSize <= 0 {
		r.batchSize = DefaultBatchSize
	}
	return r
}

// Run processes docs and calls emit for every result. It returns the summary
// of the work done so far together with the first cancellation or emit error.
func (r *Runner) Run(ctx context.Context, docs []extractor.Document, emit EmitFunc) (Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if emit == nil {
		emit = func(extractor.Result) error { return nil }
	}
	start := time.Now()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	summary := Summary{RunID: runID, Added: []string{}, Removed: []string{}}
	var initial *blacklist.Snapshot
	if r.state != nil {
		initial = r.state.Snapshot()
	}

	logger.Info("run started",
		logging.Int("documents", len(docs)),
		logging.Int("workers", r.workers),
		logging.Int("batch_size", r.batchSize),
		logging.Bool("blacklist", r.state != nil),
		logging.Bool("refilter", r.refilter))

	var held []extractor.Result
	var runErr error
	for offset := 0; offset < len(docs); offset += r.batchSize {
		batch := docs[offset:min(offset+r.batchSize, len(docs))]
		index := offset/r.batchSize + 1

		results, delta, err := r.processBatch(ctx, batch)
		if err != nil {
			logger.Info("run interrupted, discarding in-flight batch",
				logging.Int(logging.FieldBatch, index),
				logging.Error(err))
			runErr = err
			break
		}
		summary.Batches++

		if r.state != nil {
			r.state.Merge(delta)
			change := r.state.Analyze()
			if !change.Empty() {
				logger.Info("blacklist updated",
					logging.Int(logging.FieldBatch, index),
					logging.Any("added", change.Added),
					logging.Any("removed", change.Removed),
					logging.Int("total_docs", r.state.TotalDocs()))
			}
			if err := blacklist.Save(ctx, r.store, r.state); err != nil {
				summary.SaveFailures++
				logging.WarnWithContext(logger, "blacklist save failed", "blacklist_save_failed",
					logging.Int(logging.FieldBatch, index),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check that the state path is writable"),
					logging.String(logging.FieldImpact, "this batch's frequencies are kept in memory only"))
			}
		}

		if r.refilter {
			held = append(held, results...)
			continue
		}
		if err := r.emitAll(ctx, results, emit, &summary); err != nil {
			runErr = err
			break
		}
	}

	if r.refilter && runErr == nil {
		var filter extractor.Filter
		if r.state != nil {
			filter = r.state.Snapshot()
		}
		for i := range held {
			held[i] = extractor.Refilter(held[i], filter)
		}
		runErr = r.emitAll(ctx, held, emit, &summary)
	}

	if r.state != nil {
		final := r.state.Snapshot()
		summary.Blacklisted = final.Len()
		summary.Phase = final.Phase()
		summary.TotalDocs = final.TotalDocs()
		summary.Added, summary.Removed = diff(initial, final)
	}
	summary.Duration = time.Since(start)

	logger.Info("run finished",
		logging.Int("documents", summary.Documents),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("empty", summary.Empty),
		logging.Int("failed", summary.Failed),
		logging.Int("ucs", summary.UCs),
		logging.Int("blacklisted", summary.Blacklisted),
		logging.Duration("duration", summary.Duration))
	return summary, runErr
}

// processBatch extracts one batch against a single snapshot. Results keep
// input order. Each worker counts into its own delta and the deltas are
// merged only when the whole batch completed.
func (r *Runner) processBatch(ctx context.Context, docs []extractor.Document) ([]extractor.Result, *blacklist.Delta, error) {
	var filter extractor.Filter
	if r.state != nil {
		filter = r.state.Snapshot()
	}

	results := make([]extractor.Result, len(docs))
	workers := min(r.workers, len(docs))
	deltas := make([]*blacklist.Delta, workers)
	jobs := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range docs {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := range workers {
		delta := blacklist.NewDelta()
		deltas[w] = delta
		g.Go(func() error {
			for i := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				doc := docs[i]
				res := r.extractor.Extract(gctx, doc, filter)
				if res.Status == extractor.StatusError {
					if err := gctx.Err(); err != nil {
						return err
					}
					logging.WarnWithContext(logging.WithContext(logging.WithDocument(gctx, doc.Path), r.logger),
						"document extraction failed", "document_failed",
						logging.Any("errors", res.Errors),
						logging.String(logging.FieldErrorHint, "check the document encoding and content"),
						logging.String(logging.FieldImpact, "document skipped and not counted toward the blacklist"))
				}
				if res.Counted() {
					delta.Add(res.ObservedCodes())
				}
				results[i] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	merged := blacklist.NewDelta()
	for _, d := range deltas {
		merged.Merge(d)
	}
	return results, merged, nil
}

func (r *Runner) emitAll(ctx context.Context, results []extractor.Result, emit EmitFunc, summary *Summary) error {
	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary.Documents++
		switch res.Status {
		case extractor.StatusSuccess:
			summary.Succeeded++
		case extractor.StatusEmpty:
			summary.Empty++
		default:
			summary.Failed++
		}
		summary.UCs += res.UCCount
		if err := emit(res); err != nil {
			return fmt.Errorf("emit %s: %w", res.Path, err)
		}
	}
	return nil
}

// IsInterrupted reports whether err came from cancelling the run.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// diff lists the codes final blacklists that initial did not, and the
// reverse. Both lists are sorted.
func diff(initial, final *blacklist.Snapshot) (added, removed []string) {
	added, removed = []string{}, []string{}
	for _, code := range final.Codes() {
		if !initial.IsBlacklisted(code) {
			added = append(added, code)
		}
	}
	for _, code := range initial.Codes() {
		if !final.IsBlacklisted(code) {
			removed = append(removed, code)
		}
	}
	return added, removed
}
