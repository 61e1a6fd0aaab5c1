package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/lherron/hofmerge/internal/archive"
	"github.com/lherron/hofmerge/internal/records"
)

var diffCmd = &cobra.Command{
	Use:   "diff <A> <B>",
	Short: "Compare the games recorded in two archives",
	Long: `Compare the games of two archives by the attributes used to match games
during a merge, ignoring archive-assigned ids.

Lines prefixed with + are games recorded only in B: merging B into A would
copy exactly those games.

Examples:
  hofmerge diff mine.sqlite friend.sqlite
  hofmerge diff --unified 0 mine.sqlite friend.sqlite`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

var diffUnified int

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().IntVar(&diffUnified, "unified", 3, "Lines of unified context")
}

func runDiff(cmd *cobra.Command, args []string) error {
	keysA, err := gameKeys(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	keysB, err := gameKeys(cmd.Context(), args[1])
	if err != nil {
		return err
	}

	diff := difflib.UnifiedDiff{
		A:        keysA,
		B:        keysB,
		FromFile: args[0],
		ToFile:   args[1],
		Context:  diffUnified,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Errorf("failed to diff game listings: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, text)
	fmt.Fprintf(out, "%d game(s) only in %s, %d game(s) only in %s\n",
		countMissing(keysA, keysB), args[0], countMissing(keysB, keysA), args[1])
	return nil
}

// gameKeys returns the sorted, newline-terminated equivalence keys of every
// Game in the archive.
func gameKeys(ctx context.Context, path string) ([]string, error) {
	a, err := archive.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	if err := a.VerifySchema(ctx); err != nil {
		return nil, err
	}

	games, err := records.NewReader(a).ListGames(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(games))
	for i, g := range games {
		keys[i] = g.Key() + "\n"
	}
	sort.Strings(keys)
	return keys, nil
}

// countMissing counts the distinct keys of a that do not appear in b.
func countMissing(a, b []string) int {
	present := make(map[string]struct{}, len(b))
	for _, k := range b {
		present[k] = struct{}{}
	}
	seen := make(map[string]struct{}, len(a))
	for _, k := range a {
		if _, ok := present[k]; ok {
			continue
		}
		seen[k] = struct{}{}
	}
	return len(seen)
}
