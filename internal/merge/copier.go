package merge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/lherron/hofmerge/internal/records"
)

// CopyStats counts the dependent rows written for one Game.
type CopyStats struct {
	Players         int `json:"players" yaml:"players"`
	Objects         int `json:"objects" yaml:"objects"`
	DataPointValues int `json:"data_point_values" yaml:"data_point_values"`
}

// CopiedObjects tracks the Objects of one Game already copied into the
// target, keyed by source id. It is produced by Copier.CopyDataPointValues and
// is the exclusion set CopyRemainingObjects requires.
type CopiedObjects struct {
	sourceGame records.GameID
	targetGame records.GameID
	objects    map[records.ObjectID]records.ObjectID
	playerRefs map[records.ObjectID]int
	stats      CopyStats
	ready      bool
}

func newCopiedObjects(sourceGame, targetGame records.GameID) *CopiedObjects {
	return &CopiedObjects{
		sourceGame: sourceGame,
		targetGame: targetGame,
		objects:    make(map[records.ObjectID]records.ObjectID),
		playerRefs: make(map[records.ObjectID]int),
	}
}

// Target returns the target id of a copied source Object.
func (c *CopiedObjects) Target(source records.ObjectID) (records.ObjectID, bool) {
	id, ok := c.objects[source]
	return id, ok
}

// IDs returns the copied source Object ids in ascending order.
func (c *CopiedObjects) IDs() []records.ObjectID {
	ids := make([]records.ObjectID, 0, len(c.objects))
	for id := range c.objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Stats returns the rows written so far for this Game.
func (c *CopiedObjects) Stats() CopyStats {
	return c.stats
}

// SharedPlayers returns source Player ids designated by more than one Object
// of the Game. Each such Object received its own Player copy.
func (c *CopiedObjects) SharedPlayers() []records.ObjectID {
	var shared []records.ObjectID
	for id, n := range c.playerRefs {
		if n > 1 {
			shared = append(shared, id)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })
	return shared
}

// Copier copies the dependents of one admitted Game from the source archive
// into the target, remapping every foreign key to target ids.
type Copier struct {
	source *records.Reader
	target *records.Writer
	log    *zap.Logger
}

// NewCopier creates a Copier reading from source and writing through target.
func NewCopier(source *records.Reader, target *records.Writer, log *zap.Logger) *Copier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Copier{source: source, target: target, log: log}
}

// CopyDataPointValues copies every DataPointValue of sourceGame under
// targetGame. Object references are resolved by copying the referenced
// Object (and its Player) first; each Object is copied once even when several
// values point at it. The returned set must be passed to
// CopyRemainingObjects.
func (c *Copier) CopyDataPointValues(ctx context.Context, sourceGame, targetGame records.GameID) (*CopiedObjects, error) {
	copied := newCopiedObjects(sourceGame, targetGame)

	values, err := c.source.ListDataPointValues(ctx, sourceGame)
	if err != nil {
		return nil, err
	}

	for i := range values {
		v := values[i]
		v.GameID = targetGame

		if ref, ok := v.ObjectRef(); ok {
			targetObject, err := c.CopyObject(ctx, copied, ref)
			if err != nil {
				return nil, fmt.Errorf("failed to copy object %d referenced by %s: %w", ref, v.DataPoint, err)
			}
			v.ValueObjectID = sql.NullInt64{Int64: int64(targetObject), Valid: true}
		}

		if err := c.target.InsertDataPointValue(ctx, &v); err != nil {
			return nil, err
		}
		copied.stats.DataPointValues++
		c.log.Debug("copied data point value",
			zap.String("data_point", v.DataPoint),
			zap.Stringer("kind", v.Kind()),
			zap.Int64("source_game", int64(sourceGame)),
			zap.Int64("target_game", int64(targetGame)))
	}

	copied.ready = true
	return copied, nil
}

// CopyRemainingObjects copies every Object of the Game that is not already in
// copied. It must run after CopyDataPointValues for the same Game.
func (c *Copier) CopyRemainingObjects(ctx context.Context, copied *CopiedObjects) error {
	if copied == nil || !copied.ready {
		return errors.New("copy remaining objects: exclusion set not produced by CopyDataPointValues")
	}

	objects, err := c.source.ListObjects(ctx, copied.sourceGame, copied.IDs())
	if err != nil {
		return err
	}

	for i := range objects {
		if _, err := c.insertObject(ctx, copied, &objects[i]); err != nil {
			return err
		}
	}
	return nil
}

// CopyObject copies a single Object of the Game and returns its target id. An
// Object already in copied is not copied again.
func (c *Copier) CopyObject(ctx context.Context, copied *CopiedObjects, objectID records.ObjectID) (records.ObjectID, error) {
	if id, ok := copied.Target(objectID); ok {
		return id, nil
	}

	obj, err := c.source.GetObject(ctx, copied.sourceGame, objectID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return 0, &IntegrityError{Kind: "object", SourceGameID: copied.sourceGame, ID: objectID, Err: err}
		}
		return 0, err
	}
	return c.insertObject(ctx, copied, obj)
}

// CopyPlayer copies the Player keyed by playerObjectID and returns the id the
// target assigned to the copy. A missing Player is an integrity error.
func (c *Copier) CopyPlayer(ctx context.Context, sourceGame records.GameID, playerObjectID records.ObjectID) (records.ObjectID, error) {
	p, err := c.source.GetPlayer(ctx, playerObjectID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return 0, &IntegrityError{Kind: "player", SourceGameID: sourceGame, ID: playerObjectID, Err: err}
		}
		return 0, err
	}

	id, err := c.target.InsertPlayer(ctx, p)
	if err != nil {
		return 0, err
	}
	c.log.Debug("copied player",
		zap.Int64("source_player", int64(playerObjectID)),
		zap.Int64("target_player", int64(id)))
	return id, nil
}

func (c *Copier) insertObject(ctx context.Context, copied *CopiedObjects, obj *records.Object) (records.ObjectID, error) {
	out := *obj
	out.GameID = copied.targetGame

	if ref, ok := obj.PlayerRef(); ok {
		playerID, err := c.CopyPlayer(ctx, copied.sourceGame, ref)
		if err != nil {
			return 0, fmt.Errorf("failed to copy player of object %d: %w", obj.ID, err)
		}
		out.PlayerObjectID = sql.NullInt64{Int64: int64(playerID), Valid: true}
		copied.stats.Players++
		copied.playerRefs[ref]++
		if copied.playerRefs[ref] == 2 {
			c.log.Warn("player designated by more than one object; copying it again",
				zap.Int64("source_game", int64(copied.sourceGame)),
				zap.Int64("source_player", int64(ref)))
		}
	}

	id, err := c.target.InsertObject(ctx, &out)
	if err != nil {
		return 0, err
	}
	copied.objects[obj.ID] = id
	copied.stats.Objects++
	c.log.Debug("copied object",
		zap.Int64("source_object", int64(obj.ID)),
		zap.Int64("target_object", int64(id)),
		zap.String("type", obj.Type))
	return id, nil
}
