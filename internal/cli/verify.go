package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lherron/hofmerge/internal/archive"
	"github.com/lherron/hofmerge/internal/bulk"
	"github.com/lherron/hofmerge/internal/records"
	"github.com/lherron/hofmerge/internal/render"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <archive>...",
	Short: "Check that archives have the Hall of Fame schema",
	Long: `Opens each archive read-only and checks that every table a merge relies
on is present. Exits non-zero if any archive is missing tables.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

var (
	verifyOutput string
	verifyJobs   int
)

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&verifyOutput, "output", "o", "table", "Output format: table, tsv, json, yaml")
	verifyCmd.Flags().IntVarP(&verifyJobs, "jobs", "j", 0, "Archives to check concurrently (0 = one per CPU)")
}

type verifyResult struct {
	Path    string   `json:"path" yaml:"path"`
	OK      bool     `json:"ok" yaml:"ok"`
	Games   int      `json:"games" yaml:"games"`
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(verifyOutput)
	if err != nil {
		return err
	}

	results := make([]verifyResult, len(args))
	for i, path := range args {
		results[i] = verifyResult{Path: path, Error: "not checked"}
	}
	op := &bulk.Operation{Jobs: verifyJobs, ContinueOnError: true}
	outcome := op.Execute(cmd.Context(), len(args), func(ctx context.Context, i int) error {
		results[i] = verifyArchive(ctx, args[i])
		if !results[i].OK {
			return errors.New(results[i].Error)
		}
		return nil
	})

	table := render.NewTable("ARCHIVE", "STATUS", "GAMES", "DETAIL")
	for _, res := range results {
		status, detail := "ok", ""
		if !res.OK {
			status = "FAIL"
			detail = res.Error
			if len(res.Missing) > 0 {
				detail = "missing " + strings.Join(res.Missing, ", ")
			}
		}
		table.AddRow(res.Path, status, strconv.Itoa(res.Games), detail)
	}
	if err := render.NewRenderer(cmd.OutOrStdout(), format).Render(results, table); err != nil {
		return err
	}

	if outcome.Failed > 0 || outcome.Skipped > 0 {
		return fmt.Errorf("%d of %d archive(s) failed verification", len(args)-outcome.Succeeded, len(args))
	}
	return nil
}

func verifyArchive(ctx context.Context, path string) verifyResult {
	res := verifyResult{Path: path}

	a, err := archive.OpenReadOnly(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer a.Close()

	if err := a.VerifySchema(ctx); err != nil {
		var schemaErr *archive.SchemaError
		if errors.As(err, &schemaErr) {
			res.Missing = schemaErr.Missing
		}
		res.Error = err.Error()
		return res
	}

	n, err := records.NewReader(a).CountGames(ctx)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Games = n
	res.OK = true
	return res
}
