package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lherron/hofmerge/internal/archive"
)

var initCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Create an empty archive with the Hall of Fame schema",
	Long: `Init creates a SQLite archive containing every table a merge expects.
Existing tables are left untouched, so running init on a valid archive is a
no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := args[0]

	exists := false
	if _, err := os.Stat(path); err == nil {
		exists = true
	}

	a, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Bootstrap(cmd.Context()); err != nil {
		return err
	}
	if err := a.VerifySchema(cmd.Context()); err != nil {
		return err
	}

	if exists {
		fmt.Fprintf(cmd.OutOrStdout(), "Archive %s already initialized\n", path)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized archive at %s\n", path)
	}
	return nil
}
