// Package records provides typed access to the rows the merge engine reads
// from a source archive and writes into a target archive.
package records

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("record not found")

// GameID identifies a row in Games. Ids are assigned independently by each
// archive.
type GameID int64

// ObjectID identifies a row in GameObjects. Player rows are keyed by the
// object id of the player object.
type ObjectID int64

// Game is one played match.
type Game struct {
	ID            GameID         `db:"GameId"`
	Ruleset       string         `db:"Ruleset"`
	GameMode      int64          `db:"GameMode"`
	TurnCount     int64          `db:"TurnCount"`
	GameSpeedType string         `db:"GameSpeedType"`
	MapSizeType   string         `db:"MapSizeType"`
	Map           string         `db:"Map"`
	StartEraType  string         `db:"StartEraType"`
	StartTurn     int64          `db:"StartTurn"`
	VictorTeamID  sql.NullInt64  `db:"VictorTeamId"`
	VictoryType   sql.NullString `db:"VictoryType"`
	LastPlayed    int64          `db:"LastPlayed"`
}

// Key renders the attributes used for equivalence as a single line. Two Games
// are equivalent exactly when their keys are equal; the archive-assigned id
// is not part of the key. Strings are quoted so no field can absorb its
// neighbour.
func (g Game) Key() string {
	fields := []string{
		strconv.Quote(g.Ruleset),
		strconv.FormatInt(g.GameMode, 10),
		strconv.FormatInt(g.TurnCount, 10),
		strconv.Quote(g.GameSpeedType),
		strconv.Quote(g.MapSizeType),
		strconv.Quote(g.Map),
		strconv.Quote(g.StartEraType),
		strconv.FormatInt(g.StartTurn, 10),
		nullInt(g.VictorTeamID),
		nullString(g.VictoryType),
		strconv.FormatInt(g.LastPlayed, 10),
	}
	return strings.Join(fields, "\t")
}

// Equivalent reports whether two Games describe the same match.
func (g Game) Equivalent(other Game) bool {
	return g.Key() == other.Key()
}

func (g Game) String() string {
	return fmt.Sprintf("game %d (%s, %s, turn %d)", g.ID, g.Ruleset, g.Map, g.TurnCount)
}

// Player is a participant in a Game.
type Player struct {
	PlayerObjectID   ObjectID       `db:"PlayerObjectId"`
	IsLocal          bool           `db:"IsLocal"`
	IsAI             bool           `db:"IsAI"`
	IsMajor          bool           `db:"IsMajor"`
	LeaderType       string         `db:"LeaderType"`
	LeaderName       sql.NullString `db:"LeaderName"`
	CivilizationType sql.NullString `db:"CivilizationType"`
	CivilizationName sql.NullString `db:"CivilizationName"`
	DifficultyType   sql.NullString `db:"DifficultyType"`
	Score            int64          `db:"Score"`
	PlayerID         int64          `db:"PlayerId"`
	TeamID           int64          `db:"TeamId"`
}

// Object is a generic in-game entity owned by a Game.
type Object struct {
	ID             ObjectID       `db:"ObjectId"`
	GameID         GameID         `db:"GameId"`
	PlayerObjectID sql.NullInt64  `db:"PlayerObjectId"`
	Type           string         `db:"Type"`
	Name           sql.NullString `db:"Name"`
	PlotIndex      sql.NullInt64  `db:"PlotIndex"`
	ExtraData      sql.NullString `db:"ExtraData"`
	Icon           sql.NullString `db:"Icon"`
}

// PlayerRef returns the player object id this object designates, if any.
func (o Object) PlayerRef() (ObjectID, bool) {
	if !o.PlayerObjectID.Valid {
		return 0, false
	}
	return ObjectID(o.PlayerObjectID.Int64), true
}

// ValueKind tells which value slot of a DataPointValue is populated.
type ValueKind int

const (
	ValueEmpty ValueKind = iota
	ValueObject
	ValueString
	ValueNumeric
)

func (k ValueKind) String() string {
	switch k {
	case ValueObject:
		return "object"
	case ValueString:
		return "string"
	case ValueNumeric:
		return "numeric"
	default:
		return "empty"
	}
}

// DataPointValue is a keyed fact attached to a Game.
type DataPointValue struct {
	DataPoint     string          `db:"DataPoint"`
	GameID        GameID          `db:"GameId"`
	ValueObjectID sql.NullInt64   `db:"ValueObjectId"`
	ValueType     sql.NullString  `db:"ValueType"`
	ValueString   sql.NullString  `db:"ValueString"`
	ValueNumeric  sql.NullFloat64 `db:"ValueNumeric"`
}

// Kind returns the populated value slot. An object reference takes precedence
// over literal slots.
func (v DataPointValue) Kind() ValueKind {
	switch {
	case v.ValueObjectID.Valid:
		return ValueObject
	case v.ValueString.Valid:
		return ValueString
	case v.ValueNumeric.Valid:
		return ValueNumeric
	default:
		return ValueEmpty
	}
}

// ObjectRef returns the referenced object id when the value is an object
// reference.
func (v DataPointValue) ObjectRef() (ObjectID, bool) {
	if !v.ValueObjectID.Valid {
		return 0, false
	}
	return ObjectID(v.ValueObjectID.Int64), true
}

// DependentCounts summarizes the dependent rows of one Game.
type DependentCounts struct {
	Players         int `db:"Players" json:"players" yaml:"players"`
	Objects         int `db:"Objects" json:"objects" yaml:"objects"`
	DataPointValues int `db:"DataPointValues" json:"data_point_values" yaml:"data_point_values"`
}

func nullInt(v sql.NullInt64) string {
	if !v.Valid {
		return "NULL"
	}
	return strconv.FormatInt(v.Int64, 10)
}

func nullString(v sql.NullString) string {
	if !v.Valid {
		return "NULL"
	}
	return strconv.Quote(v.String)
}
