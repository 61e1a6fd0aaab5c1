package records_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lherron/hofmerge/internal/records"
	"github.com/lherron/hofmerge/internal/testutil"
)

func TestGameKey(t *testing.T) {
	base := records.Game{
		ID:            1,
		Ruleset:       "RULESET_STANDARD",
		TurnCount:     200,
		GameSpeedType: "GAMESPEED_STANDARD",
		MapSizeType:   "MAPSIZE_SMALL",
		Map:           "Continents.lua",
		StartEraType:  "ERA_ANCIENT",
		LastPlayed:    1700000000,
	}

	other := base
	other.ID = 99
	assert.True(t, base.Equivalent(other), "id is not part of equivalence")

	other.TurnCount++
	assert.False(t, base.Equivalent(other))

	literal := base
	literal.VictoryType = sql.NullString{String: "NULL", Valid: true}
	assert.False(t, base.Equivalent(literal), "the string NULL is not a missing value")

	left, right := base, base
	left.GameSpeedType, left.MapSizeType = "GAMESPEED\tQUICK", "MAPSIZE"
	right.GameSpeedType, right.MapSizeType = "GAMESPEED", "QUICK\tMAPSIZE"
	assert.False(t, left.Equivalent(right), "separators inside a field do not shift it into the next")
	assert.NotContains(t, left.Key(), "\n")
}

func TestDataPointValueKind(t *testing.T) {
	tests := []struct {
		name string
		v    records.DataPointValue
		want records.ValueKind
	}{
		{"empty", records.DataPointValue{}, records.ValueEmpty},
		{"object", records.DataPointValue{ValueObjectID: sql.NullInt64{Int64: 4, Valid: true}}, records.ValueObject},
		{"string", records.DataPointValue{ValueString: sql.NullString{String: "x", Valid: true}}, records.ValueString},
		{"numeric", records.DataPointValue{ValueNumeric: sql.NullFloat64{Float64: 1, Valid: true}}, records.ValueNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Kind())
			_, ok := tt.v.ObjectRef()
			assert.Equal(t, tt.want == records.ValueObject, ok)
		})
	}
}

func TestReader(t *testing.T) {
	ctx := context.Background()
	a := testutil.NewArchive(t, "archive.sqlite")

	g2 := testutil.InsertGame(t, a, testutil.GameRow{TurnCount: 20})
	g1 := testutil.InsertGame(t, a, testutil.GameRow{TurnCount: 10})
	p := testutil.InsertPlayer(t, a, "LEADER_PERICLES", 88)
	o1 := testutil.InsertObject(t, a, g1, p, "PLAYER")
	o2 := testutil.InsertObject(t, a, g1, 0, "CITY")
	o3 := testutil.InsertObject(t, a, g1, 0, "UNIT_SCOUT")
	o4 := testutil.InsertObject(t, a, g1, 0, "DISTRICT")
	testutil.InsertObject(t, a, g2, 0, "CITY")
	testutil.InsertObjectValue(t, a, g1, "Capital", o2)
	testutil.InsertNumericValue(t, a, g1, "Score", 88)

	r := records.NewReader(a)

	games, err := r.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, records.GameID(g2), games[0].ID)
	assert.Equal(t, int64(20), games[0].TurnCount)
	assert.False(t, games[0].VictorTeamID.Valid)

	n, err := r.CountGames(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	player, err := r.GetPlayer(ctx, records.ObjectID(p))
	require.NoError(t, err)
	assert.Equal(t, "LEADER_PERICLES", player.LeaderType)
	assert.Equal(t, int64(88), player.Score)
	assert.True(t, player.IsAI)

	_, err = r.GetPlayer(ctx, 12345)
	assert.True(t, errors.Is(err, records.ErrNotFound))

	obj, err := r.GetObject(ctx, records.GameID(g1), records.ObjectID(o1))
	require.NoError(t, err)
	ref, ok := obj.PlayerRef()
	require.True(t, ok)
	assert.Equal(t, records.ObjectID(p), ref)

	_, err = r.GetObject(ctx, records.GameID(g2), records.ObjectID(o1))
	assert.True(t, errors.Is(err, records.ErrNotFound), "objects are addressed within their game")

	all, err := r.ListObjects(ctx, records.GameID(g1), nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	rest, err := r.ListObjects(ctx, records.GameID(g1), []records.ObjectID{records.ObjectID(o2), records.ObjectID(o4)})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, records.ObjectID(o1), rest[0].ID)
	assert.Equal(t, records.ObjectID(o3), rest[1].ID)

	values, err := r.ListDataPointValues(ctx, records.GameID(g1))
	require.NoError(t, err)
	require.Len(t, values, 2)

	counts, err := r.CountDependents(ctx, records.GameID(g1))
	require.NoError(t, err)
	assert.Equal(t, records.DependentCounts{Players: 1, Objects: 4, DataPointValues: 2}, counts)
}

func TestReader_ListObjectsLargeExclusion(t *testing.T) {
	ctx := context.Background()
	a := testutil.NewArchive(t, "archive.sqlite")

	g := testutil.InsertGame(t, a, testutil.GameRow{})
	o1 := testutil.InsertObject(t, a, g, 0, "CITY")
	o2 := testutil.InsertObject(t, a, g, 0, "UNIT_SCOUT")
	o3 := testutil.InsertObject(t, a, g, 0, "DISTRICT")

	// More ids than SQLite accepts as bound variables in one statement.
	exclude := make([]records.ObjectID, 0, 40000)
	for id := int64(1000000); len(exclude) < 40000-2; id++ {
		exclude = append(exclude, records.ObjectID(id))
	}
	exclude = append(exclude, records.ObjectID(o3), records.ObjectID(o1))

	rest, err := records.NewReader(a).ListObjects(ctx, records.GameID(g), exclude)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, records.ObjectID(o2), rest[0].ID)
}

func TestWriter(t *testing.T) {
	ctx := context.Background()
	a := testutil.NewArchive(t, "archive.sqlite")
	w := records.NewWriter(a)

	g := &records.Game{
		Ruleset:       "RULESET_STANDARD",
		TurnCount:     5,
		GameSpeedType: "GAMESPEED_ONLINE",
		MapSizeType:   "MAPSIZE_DUEL",
		Map:           "Inland_Sea.lua",
		StartEraType:  "ERA_ANCIENT",
		VictorTeamID:  sql.NullInt64{Int64: 1, Valid: true},
		LastPlayed:    1,
	}
	id, inserted, err := w.InsertGameIfAbsent(ctx, g)
	require.NoError(t, err)
	require.True(t, inserted)

	_, inserted, err = w.InsertGameIfAbsent(ctx, g)
	require.NoError(t, err)
	assert.False(t, inserted)

	playerID, err := w.InsertPlayer(ctx, &records.Player{PlayerObjectID: 500, LeaderType: "LEADER_JOHN_CURTIN", IsMajor: true})
	require.NoError(t, err)
	assert.NotEqual(t, records.ObjectID(500), playerID, "the archive assigns player ids")

	objID, err := w.InsertObject(ctx, &records.Object{
		ID:             700,
		GameID:         id,
		PlayerObjectID: sql.NullInt64{Int64: int64(playerID), Valid: true},
		Type:           "PLAYER",
	})
	require.NoError(t, err)

	require.NoError(t, w.InsertDataPointValue(ctx, &records.DataPointValue{
		DataPoint:     "Winner",
		GameID:        id,
		ValueObjectID: sql.NullInt64{Int64: int64(objID), Valid: true},
	}))

	r := records.NewReader(a)
	counts, err := r.CountDependents(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, records.DependentCounts{Players: 1, Objects: 1, DataPointValues: 1}, counts)

	values, err := r.ListDataPointValues(ctx, id)
	require.NoError(t, err)
	ref, ok := values[0].ObjectRef()
	require.True(t, ok)
	assert.Equal(t, objID, ref)
}
