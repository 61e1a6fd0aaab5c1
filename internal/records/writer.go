package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// equivalenceColumns are the Games columns compared when deciding whether a
// Game is already present. GameId is deliberately absent.
var equivalenceColumns = []string{
	"Ruleset", "GameMode", "TurnCount", "GameSpeedType", "MapSizeType", "Map",
	"StartEraType", "StartTurn", "VictorTeamId", "VictoryType", "LastPlayed",
}

var insertGameIfAbsentQuery = buildInsertGameIfAbsent()

// buildInsertGameIfAbsent renders a single INSERT ... SELECT ... WHERE NOT
// EXISTS statement with named parameters. Comparisons use IS so that NULL
// victor columns compare equal.
func buildInsertGameIfAbsent() string {
	params := make([]string, len(equivalenceColumns))
	conds := make([]string, len(equivalenceColumns))
	for i, col := range equivalenceColumns {
		params[i] = ":" + col
		conds[i] = col + " IS :" + col
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s)",
		gamesTable,
		strings.Join(equivalenceColumns, ", "),
		strings.Join(params, ", "),
		gamesTable,
		strings.Join(conds, " AND "),
	)
}

// Writer inserts rows into an archive, normally through a transaction.
type Writer struct {
	x sqlx.ExtContext
}

// NewWriter creates a Writer over a connection or transaction.
func NewWriter(x sqlx.ExtContext) *Writer {
	return &Writer{x: x}
}

// InsertGameIfAbsent inserts g unless an equivalent Game already exists. It
// returns the new id and true on insert, or false when an equivalent Game was
// found and nothing was written.
func (w *Writer) InsertGameIfAbsent(ctx context.Context, g *Game) (GameID, bool, error) {
	res, err := sqlx.NamedExecContext(ctx, w.x, insertGameIfAbsentQuery, g)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert game %d: %w", g.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read rows affected for game %d: %w", g.ID, err)
	}
	if n == 0 {
		return 0, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read id of inserted game %d: %w", g.ID, err)
	}
	return GameID(id), true, nil
}

// InsertPlayer inserts a copy of p and returns the id assigned by the archive.
// p.PlayerObjectID is not written.
func (w *Writer) InsertPlayer(ctx context.Context, p *Player) (ObjectID, error) {
	ib := flavor.NewInsertBuilder()
	ib.InsertInto(playersTable)
	ib.Cols(playerColumns[1:]...)
	ib.Values(p.IsLocal, p.IsAI, p.IsMajor, p.LeaderType, p.LeaderName, p.CivilizationType,
		p.CivilizationName, p.DifficultyType, p.Score, p.PlayerID, p.TeamID)

	query, args := ib.Build()
	id, err := w.insert(ctx, query, args)
	if err != nil {
		return 0, fmt.Errorf("failed to insert player copied from %d: %w", p.PlayerObjectID, err)
	}
	return ObjectID(id), nil
}

// InsertObject inserts o as given and returns the id assigned by the archive.
// The caller is responsible for o.GameID and o.PlayerObjectID already
// pointing at rows of this archive. o.ID is not written.
func (w *Writer) InsertObject(ctx context.Context, o *Object) (ObjectID, error) {
	ib := flavor.NewInsertBuilder()
	ib.InsertInto(objectsTable)
	ib.Cols(objectColumns[1:]...)
	ib.Values(int64(o.GameID), o.PlayerObjectID, o.Type, o.Name, o.PlotIndex, o.ExtraData, o.Icon)

	query, args := ib.Build()
	id, err := w.insert(ctx, query, args)
	if err != nil {
		return 0, fmt.Errorf("failed to insert object copied from %d: %w", o.ID, err)
	}
	return ObjectID(id), nil
}

// InsertDataPointValue inserts v as given.
func (w *Writer) InsertDataPointValue(ctx context.Context, v *DataPointValue) error {
	ib := flavor.NewInsertBuilder()
	ib.InsertInto(dataPointValuesTable)
	ib.Cols(dataPointValueColumns...)
	ib.Values(v.DataPoint, int64(v.GameID), v.ValueObjectID, v.ValueType, v.ValueString, v.ValueNumeric)

	query, args := ib.Build()
	if _, err := w.insert(ctx, query, args); err != nil {
		return fmt.Errorf("failed to insert data point value %s: %w", v.DataPoint, err)
	}
	return nil
}

func (w *Writer) insert(ctx context.Context, query string, args []interface{}) (int64, error) {
	res, err := w.x.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
