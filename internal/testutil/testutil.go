// Package testutil builds throwaway archives and fixture rows for tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/lherron/hofmerge/internal/archive"
)

// NewArchive creates an empty archive with the expected schema in a temporary
// directory. It is closed when the test finishes.
func NewArchive(t *testing.T, name string) *archive.Archive {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	a, err := archive.Open(path)
	if err != nil {
		t.Fatalf("Failed to create test archive: %v", err)
	}
	if err := a.Bootstrap(context.Background()); err != nil {
		a.Close()
		t.Fatalf("Failed to bootstrap test archive: %v", err)
	}

	t.Cleanup(func() {
		a.Close()
	})
	return a
}

// GameRow holds the columns of a fixture Game. Zero values are filled with
// plausible defaults by InsertGame.
type GameRow struct {
	Ruleset       string
	GameMode      int64
	TurnCount     int64
	GameSpeedType string
	MapSizeType   string
	Map           string
	StartEraType  string
	StartTurn     int64
	VictorTeamID  sql.NullInt64
	VictoryType   sql.NullString
	LastPlayed    int64
}

// InsertGame inserts a Game and returns its id.
func InsertGame(t *testing.T, a *archive.Archive, g GameRow) int64 {
	t.Helper()

	if g.Ruleset == "" {
		g.Ruleset = "RULESET_STANDARD"
	}
	if g.GameSpeedType == "" {
		g.GameSpeedType = "GAMESPEED_STANDARD"
	}
	if g.MapSizeType == "" {
		g.MapSizeType = "MAPSIZE_SMALL"
	}
	if g.Map == "" {
		g.Map = "Continents.lua"
	}
	if g.StartEraType == "" {
		g.StartEraType = "ERA_ANCIENT"
	}
	if g.TurnCount == 0 {
		g.TurnCount = 250
	}
	if g.LastPlayed == 0 {
		g.LastPlayed = 1700000000
	}

	return exec(t, a, `INSERT INTO Games
		(Ruleset, GameMode, TurnCount, GameSpeedType, MapSizeType, Map, StartEraType, StartTurn, VictorTeamId, VictoryType, LastPlayed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Ruleset, g.GameMode, g.TurnCount, g.GameSpeedType, g.MapSizeType, g.Map,
		g.StartEraType, g.StartTurn, g.VictorTeamID, g.VictoryType, g.LastPlayed)
}

// InsertPlayer inserts a Player led by leader and returns its player object id.
func InsertPlayer(t *testing.T, a *archive.Archive, leader string, score int64) int64 {
	t.Helper()
	return exec(t, a, `INSERT INTO GamePlayers
		(IsLocal, IsAI, IsMajor, LeaderType, LeaderName, CivilizationType, CivilizationName, DifficultyType, Score, PlayerId, TeamId)
		VALUES (0, 1, 1, ?, ?, NULL, NULL, 'DIFFICULTY_PRINCE', ?, 0, 0)`,
		leader, leader, score)
}

// InsertPlayerWithID inserts a Player under an explicit player object id.
func InsertPlayerWithID(t *testing.T, a *archive.Archive, id int64, leader string) {
	t.Helper()
	exec(t, a, `INSERT INTO GamePlayers
		(PlayerObjectId, IsLocal, IsAI, IsMajor, LeaderType, Score, PlayerId, TeamId)
		VALUES (?, 1, 0, 1, ?, 0, 0, 0)`,
		id, leader)
}

// InsertObject inserts an Object of gameID and returns its id. player may be
// zero for an Object without a Player.
func InsertObject(t *testing.T, a *archive.Archive, gameID, player int64, typ string) int64 {
	t.Helper()
	return exec(t, a, `INSERT INTO GameObjects (GameId, PlayerObjectId, Type, Name) VALUES (?, ?, ?, ?)`,
		gameID, nullID(player), typ, typ)
}

// InsertObjectWithID inserts an Object under an explicit object id.
func InsertObjectWithID(t *testing.T, a *archive.Archive, id, gameID, player int64, typ string) {
	t.Helper()
	exec(t, a, `INSERT INTO GameObjects (ObjectId, GameId, PlayerObjectId, Type) VALUES (?, ?, ?, ?)`,
		id, gameID, nullID(player), typ)
}

// InsertObjectValue inserts a DataPointValue referencing an Object.
func InsertObjectValue(t *testing.T, a *archive.Archive, gameID int64, dataPoint string, objectID int64) {
	t.Helper()
	exec(t, a, `INSERT INTO GameDataPointValues (DataPoint, GameId, ValueObjectId) VALUES (?, ?, ?)`,
		dataPoint, gameID, objectID)
}

// InsertNumericValue inserts a numeric DataPointValue.
func InsertNumericValue(t *testing.T, a *archive.Archive, gameID int64, dataPoint string, v float64) {
	t.Helper()
	exec(t, a, `INSERT INTO GameDataPointValues (DataPoint, GameId, ValueType, ValueNumeric) VALUES (?, ?, 'NUMERIC', ?)`,
		dataPoint, gameID, v)
}

// InsertStringValue inserts a string DataPointValue.
func InsertStringValue(t *testing.T, a *archive.Archive, gameID int64, dataPoint, v string) {
	t.Helper()
	exec(t, a, `INSERT INTO GameDataPointValues (DataPoint, GameId, ValueType, ValueString) VALUES (?, ?, 'STRING', ?)`,
		dataPoint, gameID, v)
}

// Count returns the number of rows in table.
func Count(t *testing.T, a *archive.Archive, table string) int {
	t.Helper()
	var n int
	if err := a.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

func exec(t *testing.T, a *archive.Archive, query string, args ...interface{}) int64 {
	t.Helper()
	res, err := a.Exec(query, args...)
	if err != nil {
		t.Fatalf("Failed to insert fixture: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to read fixture id: %v", err)
	}
	return id
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
