package engine

import (
	"fmt"
	"strings"
)

// Direction is one orthogonal step on the grid
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// AllDirections lists the four moves in a fixed order
var AllDirections = []Direction{Up, Down, Left, Right}

// Delta returns the row/col offset of a single step in this direction
func (d Direction) Delta() (dRow, dCol int) {
	switch d {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	}
	return 0, 0
}

// Valid reports whether d is one of the four directions
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// ParseDirection accepts direction names case-insensitively
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
	return d, nil
}

// DirectionBetween returns the direction leading from a to an orthogonally adjacent b
func DirectionBetween(a, b Position) (Direction, bool) {
	for _, d := range AllDirections {
		dRow, dCol := d.Delta()
		if a.Add(dRow, dCol) == b {
			return d, true
		}
	}
	return "", false
}

// CanMoveTo reports whether the player may stand on (row, col)
func (gs GameState) CanMoveTo(row, col int) bool {
	if !gs.Grid.InBounds(row, col) {
		return false
	}
	return gs.Grid[row][col] != Wall
}

// AttemptMove applies one orthogonal step and returns the resulting state.
// The input state is never modified and the grid is shared, not copied.
// Moves after a win, non-unit deltas, and steps into walls or off the grid return state unchanged.
func AttemptMove(state GameState, dRow, dCol int) GameState {
	if state.Won {
		return state
	}
	if !isUnitStep(dRow, dCol) {
		return state
	}

	target := state.Player.Add(dRow, dCol)
	if !state.CanMoveTo(target.Row, target.Col) {
		return state
	}

	next := state
	next.Player = target
	if state.Grid[target.Row][target.Col] == Goal {
		next.Won = true
	}
	return next
}

func isUnitStep(dRow, dCol int) bool {
	return (dRow == 0 && (dCol == 1 || dCol == -1)) || (dCol == 0 && (dRow == 1 || dRow == -1))
}

// GenerateLocalView creates list of 8 surrounding cells around the player
func (gs GameState) GenerateLocalView() []SurroundingCell {
	pr, pc := gs.Player.Row, gs.Player.Col

	offsets := []struct{ dr, dc int }{
		{-1, 0},  // North
		{-1, 1},  // North-East
		{0, 1},   // East
		{1, 1},   // South-East
		{1, 0},   // South
		{1, -1},  // South-West
		{0, -1},  // West
		{-1, -1}, // North-West
	}

	surroundings := make([]SurroundingCell, len(offsets))
	for i, o := range offsets {
		pos := Position{Row: pr + o.dr, Col: pc + o.dc}
		surroundings[i] = SurroundingCell{
			Row:  pos.Row,
			Col:  pos.Col,
			Type: gs.Grid.At(pos),
		}
	}

	return surroundings
}
