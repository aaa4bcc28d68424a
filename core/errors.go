package core

import "fmt"

// DegeneratePatchError reports a patch whose bounds or transform collapsed.
// The offending patch is rejected and skipped; its parent's mesh keeps
// covering the area.
type DegeneratePatchError struct {
	Patch  Patch
	Reason string
}

func (e *DegeneratePatchError) Error() string {
	return fmt.Sprintf("degenerate patch on face %s level %d (uv [%g,%g]x[%g,%g]): %s",
		e.Patch.Face, e.Patch.Level, e.Patch.U0, e.Patch.U1, e.Patch.V0, e.Patch.V1, e.Reason)
}

// LevelBalanceError reports two adjacent leaves whose levels differ by more
// than one after balancing ran. This indicates a bug in the cascade, not a
// recoverable runtime condition.
type LevelBalanceError struct {
	Face          Face
	Level         int
	NeighborFace  Face
	NeighborLevel int
	Edge          Edge
}

func (e *LevelBalanceError) Error() string {
	return fmt.Sprintf("level balance violated across %s edge of face %s: level %d vs %d on face %s",
		e.Edge, e.Face, e.Level, e.NeighborLevel, e.NeighborFace)
}
