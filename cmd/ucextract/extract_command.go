package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ucextract/internal/batch"
	"ucextract/internal/blacklist"
	"ucextract/internal/corpus"
	"ucextract/internal/extractor"
	"ucextract/internal/scanner"
)

type extractOptions struct {
	distributor string
	fromDir     bool
	workers     int
	batchSize   int
	noBlacklist bool
	refilter    bool
	output      string
	format      string
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract [paths...]",
		Short: "Extract consumer unit codes from text files",
		Long: `Extract installation (UC) codes from contract text files.

Directories are walked for *.txt files. With no paths, or with "-", the text
is read from stdin. Results are printed as JSON lines when stdout is not a
terminal and as a table otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, ctx, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.distributor, "distributor", "d", "", "Distributor label applied to every document")
	flags.BoolVar(&opts.fromDir, "distributor-from-dir", false, "Use each file's parent directory as its distributor label")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "Concurrent workers (default from config)")
	flags.IntVar(&opts.batchSize, "batch-size", 0, "Documents per blacklist update (default from config)")
	flags.BoolVar(&opts.noBlacklist, "no-blacklist", false, "Neither filter nor record codes in the corpus blacklist")
	flags.BoolVar(&opts.refilter, "refilter", false, "Filter every result against the blacklist learned by the whole run")
	flags.StringVarP(&opts.output, "output", "o", "", "Write results to a file instead of stdout")
	flags.StringVarP(&opts.format, "format", "f", "", "Output format: jsonl, json, table, or csv")
	return cmd
}

func runExtract(cmd *cobra.Command, ctx *commandContext, args []string, opts extractOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	registry, err := ctx.registry()
	if err != nil {
		return err
	}

	docs, err := loadDocuments(cmd.InOrStdin(), args, corpus.Options{Distributor: opts.distributor, FromDir: opts.fromDir})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.output != "" {
		file, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}
	format, err := resolveFormat(opts.format, ctx.jsonOutput(), out)
	if err != nil {
		return err
	}

	var state *blacklist.State
	var store blacklist.Store
	if cfg.Blacklist.Enabled && !opts.noBlacklist {
		state, store, err = ctx.openBlacklist(cmd.Context(), ctx.blacklistSettings())
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ex := extractor.New(registry,
		extractor.WithScannerOptions(scanner.Options{Window: cfg.Scanner.Window, FallbackConfidence: cfg.Scanner.FallbackConfidence}),
		extractor.WithFallback(cfg.Scanner.FallbackEnabled),
		extractor.WithLogger(logger))

	runOpts := batch.Options{
		Workers:   cfg.Batch.Workers,
		BatchSize: cfg.Batch.BatchSize,
		Refilter:  cfg.Batch.Refilter || opts.refilter,
		Logger:    logger,
	}
	if opts.workers > 0 {
		runOpts.Workers = opts.workers
	}
	if opts.batchSize > 0 {
		runOpts.BatchSize = opts.batchSize
	}

	writer := newResultWriter(out, format)
	runner := batch.New(ex, state, store, runOpts)
	summary, runErr := runner.Run(cmd.Context(), docs, writer.write)
	if err := writer.close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}

	if format == formatTable {
		fmt.Fprintf(out, "%d documents: %d with codes, %d empty, %d failed", summary.Documents, summary.Succeeded, summary.Empty, summary.Failed)
		if state != nil {
			fmt.Fprintf(out, "; blacklist %s with %d codes over %d documents", summary.Phase, summary.Blacklisted, summary.TotalDocs)
		}
		fmt.Fprintln(out)
	}
	return nil
}

// loadDocuments reads stdin for "-" or when no paths are given.
func loadDocuments(stdin io.Reader, args []string, opts corpus.Options) ([]extractor.Document, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}
	var docs []extractor.Document
	var paths []string
	for _, arg := range args {
		if arg != "-" {
			paths = append(paths, arg)
			continue
		}
		doc, err := corpus.Read(stdin, "-", opts)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if len(paths) > 0 {
		fromFiles, err := corpus.Load(paths, opts)
		if err != nil {
			return nil, err
		}
		docs = append(docs, fromFiles...)
	}
	return docs, nil
}
