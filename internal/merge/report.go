package merge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lherron/hofmerge/internal/archive"
	"github.com/lherron/hofmerge/internal/records"
)

// Status is the terminal state of one source Game in a run.
type Status string

const (
	StatusCopied  Status = "copied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// GameEntry records what happened to one source Game.
type GameEntry struct {
	SourceID      records.GameID     `json:"source_id" yaml:"source_id"`
	TargetID      records.GameID     `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	Status        Status             `json:"status" yaml:"status"`
	Copied        CopyStats          `json:"copied" yaml:"copied"`
	SharedPlayers []records.ObjectID `json:"shared_players,omitempty" yaml:"shared_players,omitempty"`
	Error         string             `json:"error,omitempty" yaml:"error,omitempty"`
}

// Totals aggregates a run.
type Totals struct {
	GamesSeen       int `json:"games_seen" yaml:"games_seen"`
	GamesCopied     int `json:"games_copied" yaml:"games_copied"`
	GamesSkipped    int `json:"games_skipped" yaml:"games_skipped"`
	GamesFailed     int `json:"games_failed" yaml:"games_failed"`
	Players         int `json:"players" yaml:"players"`
	Objects         int `json:"objects" yaml:"objects"`
	DataPointValues int `json:"data_point_values" yaml:"data_point_values"`
}

// Report describes one merge run.
type Report struct {
	RunID           string              `json:"run_id" yaml:"run_id"`
	Source          string              `json:"source" yaml:"source"`
	Target          string              `json:"target" yaml:"target"`
	Seed            *archive.SeedResult `json:"seed,omitempty" yaml:"seed,omitempty"`
	DryRun          bool                `json:"dry_run" yaml:"dry_run"`
	ContinueOnError bool                `json:"continue_on_error" yaml:"continue_on_error"`
	StartedAt       time.Time           `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time           `json:"finished_at" yaml:"finished_at"`
	Totals          Totals              `json:"totals" yaml:"totals"`
	Games           []GameEntry         `json:"games" yaml:"games"`
}

func newReport(source, target string, opts Options) *Report {
	return &Report{
		RunID:           uuid.New().String(),
		Source:          source,
		Target:          target,
		DryRun:          opts.DryRun,
		ContinueOnError: opts.ContinueOnError,
		StartedAt:       time.Now().UTC(),
		Games:           []GameEntry{},
	}
}

func (r *Report) add(e GameEntry) {
	r.Games = append(r.Games, e)
	r.Totals.GamesSeen++
	switch e.Status {
	case StatusCopied:
		r.Totals.GamesCopied++
		r.Totals.Players += e.Copied.Players
		r.Totals.Objects += e.Copied.Objects
		r.Totals.DataPointValues += e.Copied.DataPointValues
	case StatusSkipped:
		r.Totals.GamesSkipped++
	case StatusFailed:
		r.Totals.GamesFailed++
	}
}

func (r *Report) finish() {
	r.FinishedAt = time.Now().UTC()
}

// Failed returns the entries of Games that could not be merged.
func (r *Report) Failed() []GameEntry {
	var failed []GameEntry
	for _, e := range r.Games {
		if e.Status == StatusFailed {
			failed = append(failed, e)
		}
	}
	return failed
}

// WriteFile writes the report as YAML when path ends in .yaml or .yml, and as
// indented JSON otherwise.
func (r *Report) WriteFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(r)
	default:
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
