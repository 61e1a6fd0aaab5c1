package merge

import (
	"fmt"

	"github.com/lherron/hofmerge/internal/records"
)

// IntegrityError reports a dependent row referenced by id that is missing from
// the source archive. The archive is corrupt or unsupported; the Game cannot
// be copied.
type IntegrityError struct {
	Kind         string
	SourceGameID records.GameID
	ID           records.ObjectID
	Err          error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("game %d references missing %s %d", e.SourceGameID, e.Kind, e.ID)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// GameError wraps any failure while merging a single source Game.
type GameError struct {
	SourceGameID records.GameID
	Op           string
	Err          error
}

func (e *GameError) Error() string {
	return fmt.Sprintf("game %d: %s: %v", e.SourceGameID, e.Op, e.Err)
}

func (e *GameError) Unwrap() error {
	return e.Err
}
