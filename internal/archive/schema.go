package archive

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

var expectedTables = []string{
	"Migrations",
	"Rulesets",
	"RulesetTypes",
	"Games",
	"GamePlayers",
	"GameObjects",
	"RulesetDataPointValues",
	"GameDataPointValues",
	"ObjectDataPointValues",
	"DataSets",
	"DataSetValues",
}

// ExpectedTables returns the tables every archive must expose.
func ExpectedTables() []string {
	tables := make([]string, len(expectedTables))
	copy(tables, expectedTables)
	return tables
}

// SchemaError reports an archive that lacks one or more expected tables.
type SchemaError struct {
	Path    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("archive %s is missing expected table(s): %s", e.Path, strings.Join(e.Missing, ", "))
}

// VerifySchema checks that every expected table is present. It returns a
// *SchemaError naming the missing tables, or nil.
func (a *Archive) VerifySchema(ctx context.Context) error {
	tables, err := a.Tables(ctx)
	if err != nil {
		return err
	}

	present := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		present[t] = struct{}{}
	}

	var missing []string
	for _, t := range expectedTables {
		if _, ok := present[t]; !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &SchemaError{Path: a.path, Missing: missing}
	}
	return nil
}
