package merge

import (
	"context"
	"fmt"

	"github.com/lherron/hofmerge/internal/records"
)

// Resolution is the outcome of resolving a Game against the target archive:
// either it was inserted under a new id, or an equivalent Game already exists.
type Resolution struct {
	id       records.GameID
	inserted bool
}

// Inserted returns the Resolution for a Game admitted under id.
func Inserted(id records.GameID) Resolution {
	return Resolution{id: id, inserted: true}
}

// AlreadyExists is the Resolution for a Game whose equivalent is already in
// the target. Its dependents must not be copied.
var AlreadyExists = Resolution{}

// TargetID returns the newly assigned target id, and false when the Game was
// already present.
func (r Resolution) TargetID() (records.GameID, bool) {
	return r.id, r.inserted
}

func (r Resolution) String() string {
	if !r.inserted {
		return "already exists"
	}
	return fmt.Sprintf("inserted as %d", r.id)
}

// Resolver decides whether a source Game is new to the target archive and
// admits it when it is.
type Resolver struct {
	target *records.Writer
}

// NewResolver creates a Resolver writing through target.
func NewResolver(target *records.Writer) *Resolver {
	return &Resolver{target: target}
}

// Resolve inserts candidate into the target unless an equivalent Game exists.
// Equivalence compares every Game attribute except the source id.
func (r *Resolver) Resolve(ctx context.Context, candidate *records.Game) (Resolution, error) {
	id, inserted, err := r.target.InsertGameIfAbsent(ctx, candidate)
	if err != nil {
		return AlreadyExists, err
	}
	if !inserted {
		return AlreadyExists, nil
	}
	return Inserted(id), nil
}
