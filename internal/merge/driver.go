// Package merge folds the Games of a source archive into a target archive.
//
// Each source Game is resolved against the target by attribute equivalence.
// A Game with no equivalent is inserted and all of its dependents (Players,
// Objects, DataPointValues) are copied under freshly assigned target ids, in
// one transaction per Game. A Game that already exists is skipped together
// with its dependents.
package merge

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/lherron/hofmerge/internal/archive"
	"github.com/lherron/hofmerge/internal/records"
)

// Options control a merge run.
type Options struct {
	// DryRun performs every write and then discards them.
	DryRun bool
	// ContinueOnError logs a failed Game and moves on instead of stopping
	// the run. The failed Game leaves no rows behind either way.
	ContinueOnError bool
}

// Driver merges every Game of a source archive into a target archive.
type Driver struct {
	source *archive.Archive
	target *archive.Archive
	opts   Options
	log    *zap.Logger
}

// NewDriver creates a Driver. The source is only read.
func NewDriver(source, target *archive.Archive, opts Options, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{source: source, target: target, opts: opts, log: log}
}

// Run merges every source Game in source order and reports the outcome. With
// ContinueOnError unset the first failing Game stops the run; the returned
// report covers the Games processed up to and including it.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	report := newReport(d.source.Path(), d.target.Path(), d.opts)

	reader := records.NewReader(d.source)
	games, err := reader.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	d.log.Info("synchronizing games",
		zap.String("source", d.source.Path()),
		zap.String("target", d.target.Path()),
		zap.Int("games", len(games)),
		zap.Bool("dry_run", d.opts.DryRun))

	session, err := d.target.Begin(ctx, d.opts.DryRun)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	for i := range games {
		if err := ctx.Err(); err != nil {
			report.finish()
			return report, err
		}

		entry, err := d.mergeGame(ctx, session, reader, &games[i])
		report.add(entry)
		if err != nil {
			if !d.opts.ContinueOnError {
				report.finish()
				return report, err
			}
			d.log.Error("failed to merge game; continuing",
				zap.Int64("source_game", int64(games[i].ID)),
				zap.Error(err))
		}
	}

	if err := session.Close(); err != nil {
		report.finish()
		return report, err
	}
	report.finish()

	d.log.Info("synchronization finished",
		zap.Int("seen", report.Totals.GamesSeen),
		zap.Int("copied", report.Totals.GamesCopied),
		zap.Int("skipped", report.Totals.GamesSkipped),
		zap.Int("failed", report.Totals.GamesFailed))
	return report, nil
}

func (d *Driver) mergeGame(ctx context.Context, session *archive.Session, reader *records.Reader, g *records.Game) (GameEntry, error) {
	entry := GameEntry{SourceID: g.ID}

	err := session.Do(ctx, func(tx *sqlx.Tx) error {
		writer := records.NewWriter(tx)

		res, err := NewResolver(writer).Resolve(ctx, g)
		if err != nil {
			return &GameError{SourceGameID: g.ID, Op: "resolve", Err: err}
		}
		targetID, ok := res.TargetID()
		if !ok {
			entry.Status = StatusSkipped
			return nil
		}
		entry.TargetID = targetID

		copier := NewCopier(reader, writer, d.log)
		copied, err := copier.CopyDataPointValues(ctx, g.ID, targetID)
		if err != nil {
			return &GameError{SourceGameID: g.ID, Op: "copy data point values", Err: err}
		}
		if err := copier.CopyRemainingObjects(ctx, copied); err != nil {
			return &GameError{SourceGameID: g.ID, Op: "copy objects", Err: err}
		}

		entry.Status = StatusCopied
		entry.Copied = copied.Stats()
		entry.SharedPlayers = copied.SharedPlayers()
		return nil
	})
	if err != nil {
		return GameEntry{SourceID: g.ID, Status: StatusFailed, Error: err.Error()}, err
	}

	switch entry.Status {
	case StatusSkipped:
		d.log.Info("game already present; skipped", zap.Int64("source_game", int64(g.ID)))
	case StatusCopied:
		d.log.Info("copied game",
			zap.Int64("source_game", int64(g.ID)),
			zap.Int64("target_game", int64(entry.TargetID)),
			zap.Int("players", entry.Copied.Players),
			zap.Int("objects", entry.Copied.Objects),
			zap.Int("data_point_values", entry.Copied.DataPointValues))
	}
	return entry, nil
}
