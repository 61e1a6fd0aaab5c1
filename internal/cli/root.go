package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/hofmerge/internal/cli/appctx"
	"github.com/lherron/hofmerge/internal/merge"
)

var rootCmd = &cobra.Command{
	Use:   "hofmerge <source> <enrich> <target>",
	Short: "Merge Civilization VI Hall of Fame archives",
	Long: `hofmerge combines the game history of two Hall of Fame archives.

The target archive starts as a copy of <source>. Every game recorded in
<enrich> that the target does not already hold is then copied into it with
its players, objects and data point values. Games are matched on their
recorded attributes, so running the same merge twice changes nothing.

Neither <source> nor <enrich> is modified. Use --dry-run to see what would
be copied without keeping a target.`,
	Args:          cobra.ExactArgs(3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          appctx.WithApp(runMerge),
}

var (
	mergeDryRun          bool
	mergeContinueOnError bool
	mergeOverwrite       bool
	mergeReportPath      string
)

// ExecuteContext runs the root command with ctx. Cancelling ctx stops a merge
// between games.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides HOFMERGE_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: console or json (overrides HOFMERGE_LOG_FORMAT)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every copied row")

	rootCmd.Flags().BoolVar(&mergeDryRun, "dry-run", false, "Run the merge and discard every write")
	rootCmd.Flags().BoolVar(&mergeContinueOnError, "continue-on-error", false, "Skip games that fail to copy instead of stopping")
	rootCmd.Flags().BoolVar(&mergeOverwrite, "overwrite", false, "Replace an existing target archive")
	rootCmd.Flags().StringVar(&mergeReportPath, "report", "", "Write a JSON (or .yaml) run report to path")
}

func runMerge(app *appctx.App, cmd *cobra.Command, args []string) error {
	cfg := app.Config
	opts := mergeOptions{
		SourcePath:      args[0],
		EnrichPath:      args[1],
		TargetPath:      args[2],
		DryRun:          mergeDryRun,
		ContinueOnError: cfg.ContinueOnError,
		Overwrite:       cfg.Overwrite,
	}
	if cmd.Flags().Changed("continue-on-error") {
		opts.ContinueOnError = mergeContinueOnError
	}
	if cmd.Flags().Changed("overwrite") {
		opts.Overwrite = mergeOverwrite
	}
	reportPath := cfg.ReportPath
	if mergeReportPath != "" {
		reportPath = mergeReportPath
	}

	report, err := mergeArchives(cmd.Context(), opts, app.Log)
	if report != nil {
		printMergeSummary(cmd, report)
		if reportPath != "" {
			if writeErr := report.WriteFile(reportPath); writeErr != nil && err == nil {
				err = writeErr
			}
		}
	}
	if err != nil {
		return err
	}

	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d game(s) could not be merged", len(failed))
	}
	return nil
}

func printMergeSummary(cmd *cobra.Command, report *merge.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Merge %s -> %s\n", report.Source, report.Target)
	if report.Seed != nil {
		fmt.Fprintf(out, "Seeded from %s (%d bytes, sha256 %s)\n", report.Seed.Source, report.Seed.Bytes, report.Seed.Checksum)
	}
	if report.DryRun {
		fmt.Fprintln(out, "Mode: dry-run")
	}
	t := report.Totals
	fmt.Fprintf(out, "Games: %d seen, %d copied, %d skipped, %d failed\n", t.GamesSeen, t.GamesCopied, t.GamesSkipped, t.GamesFailed)
	fmt.Fprintf(out, "Copied: %d players, %d objects, %d data point values\n", t.Players, t.Objects, t.DataPointValues)

	shared := 0
	for _, g := range report.Games {
		shared += len(g.SharedPlayers)
	}
	if shared > 0 {
		fmt.Fprintf(out, "Shared players: %d (copied once per referencing object)\n", shared)
	}
	for _, g := range report.Failed() {
		fmt.Fprintf(out, "Failed: %s\n", g.Error)
	}
}
