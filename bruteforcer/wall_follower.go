package main

// Direction names understood by the maze API
const (
	Up    = "up"
	Right = "right"
	Down  = "down"
	Left  = "left"
)

// clockwise order; turning right is +1, turning left is +3
var headings = []string{Up, Right, Down, Left}

var deltas = map[string]Position{
	Up:    {Row: -1, Col: 0},
	Right: {Row: 0, Col: 1},
	Down:  {Row: 1, Col: 0},
	Left:  {Row: 0, Col: -1},
}

// WallFollower walks a perfect maze keeping its right hand on the wall.
// In a maze without loops this visits every corridor and always reaches the goal.
type WallFollower struct {
	heading int
}

func NewWallFollower() *WallFollower {
	return &WallFollower{heading: 1} // start facing right, away from the top-left corner
}

func (w *WallFollower) Reset() {
	w.heading = 1
}

func step(pos Position, dir string) Position {
	d := deltas[dir]
	return Position{Row: pos.Row + d.Row, Col: pos.Col + d.Col}
}

func isOpen(grid [][]string, pos Position) bool {
	if pos.Row < 0 || pos.Row >= len(grid) || pos.Col < 0 || pos.Col >= len(grid[pos.Row]) {
		return false
	}
	return grid[pos.Row][pos.Col] != "wall"
}

// next picks the first open direction in the order right, straight, left, back
// and turns to face it. It returns "" when the player is boxed in.
func (w *WallFollower) next(grid [][]string, pos Position) string {
	for _, turn := range []int{1, 0, 3, 2} {
		h := (w.heading + turn) % 4
		if isOpen(grid, step(pos, headings[h])) {
			w.heading = h
			return headings[h]
		}
	}
	return ""
}

// NextMove returns the next direction from the player's current position
func (w *WallFollower) NextMove(state *GameState) string {
	if state == nil || state.Won {
		return ""
	}
	return w.next(state.Grid, state.Player)
}

// NextMoves plans up to maxMoves directions ahead on the known grid, stopping
// early if the plan reaches the goal.
func (w *WallFollower) NextMoves(state *GameState, maxMoves int) []string {
	if state == nil || state.Won {
		return nil
	}

	moves := make([]string, 0, maxMoves)
	pos := state.Player
	for len(moves) < maxMoves {
		dir := w.next(state.Grid, pos)
		if dir == "" {
			break
		}
		moves = append(moves, dir)
		pos = step(pos, dir)
		if state.Grid[pos.Row][pos.Col] == "goal" {
			break
		}
	}
	return moves
}
