package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
)

var flavor = sqlbuilder.SQLite

const (
	gamesTable           = "Games"
	playersTable         = "GamePlayers"
	objectsTable         = "GameObjects"
	dataPointValuesTable = "GameDataPointValues"
)

var (
	gameColumns = []string{
		"GameId", "Ruleset", "GameMode", "TurnCount", "GameSpeedType", "MapSizeType",
		"Map", "StartEraType", "StartTurn", "VictorTeamId", "VictoryType", "LastPlayed",
	}
	playerColumns = []string{
		"PlayerObjectId", "IsLocal", "IsAI", "IsMajor", "LeaderType", "LeaderName",
		"CivilizationType", "CivilizationName", "DifficultyType", "Score", "PlayerId", "TeamId",
	}
	objectColumns = []string{
		"ObjectId", "GameId", "PlayerObjectId", "Type", "Name", "PlotIndex", "ExtraData", "Icon",
	}
	dataPointValueColumns = []string{
		"DataPoint", "GameId", "ValueObjectId", "ValueType", "ValueString", "ValueNumeric",
	}
)

// Reader runs read-only queries against an archive. It never writes.
type Reader struct {
	q sqlx.QueryerContext
}

// NewReader creates a Reader over a connection or transaction.
func NewReader(q sqlx.QueryerContext) *Reader {
	return &Reader{q: q}
}

// ListGames returns every Game in id order.
func (r *Reader) ListGames(ctx context.Context) ([]Game, error) {
	sb := flavor.NewSelectBuilder()
	sb.Select(gameColumns...)
	sb.From(gamesTable)
	sb.OrderBy("GameId")

	query, args := sb.Build()

	var games []Game
	if err := sqlx.SelectContext(ctx, r.q, &games, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	return games, nil
}

// GetPlayer returns the Player keyed by its player object id.
func (r *Reader) GetPlayer(ctx context.Context, playerObjectID ObjectID) (*Player, error) {
	sb := flavor.NewSelectBuilder()
	sb.Select(playerColumns...)
	sb.From(playersTable)
	sb.Where(sb.Equal("PlayerObjectId", playerObjectID))

	query, args := sb.Build()

	var p Player
	if err := sqlx.GetContext(ctx, r.q, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("player %d: %w", playerObjectID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get player %d: %w", playerObjectID, err)
	}
	return &p, nil
}

// GetObject returns the Object identified by (gameID, objectID).
func (r *Reader) GetObject(ctx context.Context, gameID GameID, objectID ObjectID) (*Object, error) {
	sb := flavor.NewSelectBuilder()
	sb.Select(objectColumns...)
	sb.From(objectsTable)
	sb.Where(
		sb.Equal("GameId", gameID),
		sb.Equal("ObjectId", objectID),
	)

	query, args := sb.Build()

	var o Object
	if err := sqlx.GetContext(ctx, r.q, &o, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("object %d of game %d: %w", objectID, gameID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object %d of game %d: %w", objectID, gameID, err)
	}
	return &o, nil
}

// maxBoundExclusions caps the ids ListObjects binds into a NOT IN clause.
// SQLite rejects statements with more than 32766 variables; larger exclusion
// sets are applied after the query instead.
const maxBoundExclusions = 500

// ListObjects returns the Objects of a Game whose ids are not in exclude, in
// id order.
func (r *Reader) ListObjects(ctx context.Context, gameID GameID, exclude []ObjectID) ([]Object, error) {
	if len(exclude) > maxBoundExclusions {
		return r.listObjectsExcept(ctx, gameID, exclude)
	}

	sb := flavor.NewSelectBuilder()
	sb.Select(objectColumns...)
	sb.From(objectsTable)
	sb.Where(sb.Equal("GameId", gameID))
	if len(exclude) > 0 {
		ids := make([]interface{}, len(exclude))
		for i, id := range exclude {
			ids[i] = int64(id)
		}
		sb.Where(sb.NotIn("ObjectId", ids...))
	}
	sb.OrderBy("ObjectId")

	query, args := sb.Build()

	var objects []Object
	if err := sqlx.SelectContext(ctx, r.q, &objects, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query objects of game %d: %w", gameID, err)
	}
	return objects, nil
}

func (r *Reader) listObjectsExcept(ctx context.Context, gameID GameID, exclude []ObjectID) ([]Object, error) {
	all, err := r.ListObjects(ctx, gameID, nil)
	if err != nil {
		return nil, err
	}

	skip := make(map[ObjectID]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	objects := all[:0]
	for _, o := range all {
		if _, ok := skip[o.ID]; !ok {
			objects = append(objects, o)
		}
	}
	return objects, nil
}

// ListDataPointValues returns the DataPointValues of a Game.
func (r *Reader) ListDataPointValues(ctx context.Context, gameID GameID) ([]DataPointValue, error) {
	sb := flavor.NewSelectBuilder()
	sb.Select(dataPointValueColumns...)
	sb.From(dataPointValuesTable)
	sb.Where(sb.Equal("GameId", gameID))

	query, args := sb.Build()

	var values []DataPointValue
	if err := sqlx.SelectContext(ctx, r.q, &values, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query data point values of game %d: %w", gameID, err)
	}
	return values, nil
}

// CountDependents counts the dependent rows a Game owns. Players are counted
// through the Objects that designate them.
func (r *Reader) CountDependents(ctx context.Context, gameID GameID) (DependentCounts, error) {
	var counts DependentCounts

	objects := flavor.NewSelectBuilder()
	objects.Select(
		objects.As("COUNT(*)", "Objects"),
		objects.As("COUNT(PlayerObjectId)", "Players"),
	)
	objects.From(objectsTable)
	objects.Where(objects.Equal("GameId", gameID))

	query, args := objects.Build()
	if err := sqlx.GetContext(ctx, r.q, &counts, query, args...); err != nil {
		return counts, fmt.Errorf("failed to count objects of game %d: %w", gameID, err)
	}

	values := flavor.NewSelectBuilder()
	values.Select("COUNT(*)")
	values.From(dataPointValuesTable)
	values.Where(values.Equal("GameId", gameID))

	query, args = values.Build()
	if err := sqlx.GetContext(ctx, r.q, &counts.DataPointValues, query, args...); err != nil {
		return counts, fmt.Errorf("failed to count data point values of game %d: %w", gameID, err)
	}
	return counts, nil
}

// CountGames returns the number of rows in Games.
func (r *Reader) CountGames(ctx context.Context) (int, error) {
	sb := flavor.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(gamesTable)

	query, args := sb.Build()

	var n int
	if err := sqlx.GetContext(ctx, r.q, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}
	return n, nil
}
