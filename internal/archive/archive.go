// Package archive opens and validates Hall of Fame save-data archives.
// An archive is a SQLite file; every archive involved in a merge shares the
// same schema.
package archive

import (
	"context"
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

const driverName = "sqlite3"

// Archive wraps a SQLite connection to a single archive file.
type Archive struct {
	*sqlx.DB
	path     string
	readOnly bool
}

// Open opens an archive for reading and writing. The parent directory is
// created if needed.
func Open(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return open(path, false)
}

// OpenReadOnly opens an existing archive without write access. It fails if
// the file does not exist.
func OpenReadOnly(path string) (*Archive, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	return open(path, true)
}

func open(path string, readOnly bool) (*Archive, error) {
	dsn := path
	if readOnly {
		dsn = "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}

	// One connection keeps per-Game transactions and savepoints on the same
	// SQLite handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	return &Archive{DB: db, path: path, readOnly: readOnly}, nil
}

// Path returns the archive file path
func (a *Archive) Path() string {
	return a.path
}

// ReadOnly reports whether the archive was opened without write access
func (a *Archive) ReadOnly() bool {
	return a.readOnly
}

// Bootstrap creates the expected schema in an empty archive. Tables that
// already exist are left untouched.
func (a *Archive) Bootstrap(ctx context.Context) error {
	if a.readOnly {
		return fmt.Errorf("cannot bootstrap read-only archive %s", a.path)
	}

	content, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	tx, err := a.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bootstrap transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to create schema in %s: %w", a.path, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema for %s: %w", a.path, err)
	}
	return nil
}

// Tables returns the names of all tables present in the archive, sorted.
func (a *Archive) Tables(ctx context.Context) ([]string, error) {
	var names []string
	if err := a.SelectContext(ctx, &names, "SELECT name FROM sqlite_master WHERE type = 'table'"); err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", a.path, err)
	}
	sort.Strings(names)
	return names, nil
}
