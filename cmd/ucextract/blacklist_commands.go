package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/spf13/cobra"

	"ucextract/internal/blacklist"
	"ucextract/internal/failures"
	"ucextract/internal/fileutil"
)

func newBlacklistCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Inspect and maintain the corpus blacklist",
	}
	cmd.AddCommand(newBlacklistShowCommand(ctx))
	cmd.AddCommand(newBlacklistAnalyzeCommand(ctx))
	cmd.AddCommand(newBlacklistResetCommand(ctx))
	return cmd
}

type blacklistView struct {
	Path             string               `json:"path"`
	Phase            blacklist.Phase      `json:"phase"`
	TotalDocs        int                  `json:"total_docs"`
	ThresholdPercent float64              `json:"threshold_percent"`
	WarmupMinDocs    int                  `json:"warmup_min_docs"`
	Blacklist        []string             `json:"blacklist"`
	Top              []blacklist.CodeStat `json:"top"`
}

func newBlacklistShowCommand(ctx *commandContext) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the blacklist and the most frequent codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := ctx.blacklistSettings()
			state, store, err := ctx.openBlacklist(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer store.Close()

			snap := state.Snapshot()
			view := blacklistView{
				Path:             store.Path(),
				Phase:            snap.Phase(),
				TotalDocs:        snap.TotalDocs(),
				ThresholdPercent: settings.ThresholdPercent,
				WarmupMinDocs:    settings.WarmupMin,
				Blacklist:        snap.Codes(),
				Top:              state.Top(top),
			}
			if view.Blacklist == nil {
				view.Blacklist = []string{}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "State:      %s\n", view.Path)
			fmt.Fprintf(out, "Phase:      %s (%d documents, warm-up %d)\n", view.Phase, view.TotalDocs, view.WarmupMinDocs)
			fmt.Fprintf(out, "Threshold:  %s%%\n", strconv.FormatFloat(view.ThresholdPercent, 'f', -1, 64))
			fmt.Fprintf(out, "Blacklist:  %d codes\n", len(view.Blacklist))
			if len(view.Top) == 0 {
				fmt.Fprintln(out, "No codes recorded")
				return nil
			}
			rows := make([][]string, 0, len(view.Top))
			for _, stat := range view.Top {
				rows = append(rows, []string{
					stat.Code,
					strconv.Itoa(stat.Documents),
					strconv.FormatFloat(stat.Percent, 'f', 1, 64),
					yesNo(stat.Blacklisted),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Code", "Documents", "Percent", "Blacklisted"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft}))
			return nil
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 20, "Number of codes to list (0 lists all)")
	return cmd
}

type analyzeView struct {
	Path      string          `json:"path"`
	Phase     blacklist.Phase `json:"phase"`
	TotalDocs int             `json:"total_docs"`
	Blacklist []string        `json:"blacklist"`
	Added     []string        `json:"added"`
	Removed   []string        `json:"removed"`
	Saved     bool            `json:"saved"`
}

func newBlacklistAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var threshold float64
	var warmup int
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Recompute the blacklist from stored frequencies",
		Long: `Recompute the blacklist from the stored frequency table, optionally with a
different threshold or warm-up, and save the result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := ctx.blacklistSettings()
			if cmd.Flags().Changed("threshold") {
				settings.ThresholdPercent = threshold
			}
			if cmd.Flags().Changed("warmup") {
				settings.WarmupMin = warmup
			}
			if err := settings.Validate(); err != nil {
				return failures.Wrap(failures.ErrConfiguration, "blacklist", "analyze", "", err)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := blacklist.OpenStore(cfg.Blacklist.StatePath)
			if err != nil {
				if store != nil {
					_ = store.Close()
				}
				return err
			}
			defer store.Close()

			artifact, found, err := store.Load(cmd.Context())
			if err != nil {
				return failures.Wrap(failures.ErrBlacklistPersistence, "blacklist", "analyze", store.Path(), err)
			}
			if !found {
				return fmt.Errorf("no blacklist state at %s; run `ucextract extract` first", store.Path())
			}
			state := blacklist.NewState(settings)
			change, err := state.Restore(artifact)
			if err != nil {
				return failures.Wrap(failures.ErrBlacklistPersistence, "blacklist", "analyze", "corrupt state "+store.Path(), err)
			}
			if !dryRun {
				if err := blacklist.Save(cmd.Context(), store, state); err != nil {
					return err
				}
			}

			snap := state.Snapshot()
			view := analyzeView{
				Path:      store.Path(),
				Phase:     snap.Phase(),
				TotalDocs: snap.TotalDocs(),
				Blacklist: nonNil(snap.Codes()),
				Added:     nonNil(change.Added),
				Removed:   nonNil(change.Removed),
				Saved:     !dryRun,
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Phase %s over %d documents: %d blacklisted codes\n", view.Phase, view.TotalDocs, len(view.Blacklist))
			for _, code := range view.Added {
				fmt.Fprintf(out, "+ %s\n", code)
			}
			for _, code := range view.Removed {
				fmt.Fprintf(out, "- %s\n", code)
			}
			if change.Empty() {
				fmt.Fprintln(out, "No changes")
			}
			if dryRun {
				fmt.Fprintln(out, "Dry run: state not saved")
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", blacklist.DefaultThresholdPercent, "Admission threshold in percent of documents")
	cmd.Flags().IntVar(&warmup, "warmup", blacklist.DefaultWarmupMin, "Documents required before any code is blacklisted")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report the changes without saving them")
	return cmd
}

func newBlacklistResetCommand(ctx *commandContext) *cobra.Command {
	var noBackup bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget every learned code",
		Long: `Reset the blacklist state to an empty COLD state. The previous state file is
copied to <state>.bak first unless --no-backup is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Blacklist.StatePath
			out := cmd.OutOrStdout()

			if !noBackup {
				backup := path + ".bak"
				switch err := fileutil.CopyFileVerified(path, backup); {
				case err == nil:
					fmt.Fprintf(out, "Backed up %s to %s\n", path, backup)
				case errors.Is(err, fs.ErrNotExist):
				default:
					return failures.Wrap(failures.ErrBlacklistPersistence, "blacklist", "backup", path, err)
				}
			}

			store, err := blacklist.OpenStore(path)
			if err != nil {
				if _, ok := store.(*blacklist.SQLiteStore); !ok {
					if store != nil {
						_ = store.Close()
					}
					return err
				}
				fmt.Fprintf(out, "Moved unreadable database to %s\n", blacklist.CorruptPath(path))
			}
			defer store.Close()
			state := blacklist.NewState(ctx.blacklistSettings())
			if err := blacklist.Save(cmd.Context(), store, state); err != nil {
				return err
			}
			fmt.Fprintf(out, "Blacklist state reset at %s\n", store.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Do not keep a copy of the previous state")
	return cmd
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
