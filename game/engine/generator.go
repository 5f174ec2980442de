package engine

// carveFrame is one level of the depth-first carve: a cell and the
// shuffled order in which its four neighbours two steps away are tried.
type carveFrame struct {
	pos  Position
	dirs [4]Direction
	next int
}

// ValidateDimensions checks that a rows x cols maze can be carved
func ValidateDimensions(rows, cols int) error {
	if rows < MinMazeSize || cols < MinMazeSize {
		return &ConfigError{Rows: rows, Cols: cols, Reason: "rows and cols must be at least 5"}
	}
	if rows%2 == 0 || cols%2 == 0 {
		return &ConfigError{Rows: rows, Cols: cols, Reason: "rows and cols must be odd"}
	}
	return nil
}

// Generate carves a perfect maze with a randomized depth-first backtracker.
// The player starts at (1,1); the goal is the bottom-right-most path cell.
func Generate(rows, cols int, rng RandSource) (GameState, error) {
	if err := ValidateDimensions(rows, cols); err != nil {
		return GameState{}, err
	}

	grid := make(Grid, rows)
	for r := range grid {
		grid[r] = make([]CellType, cols)
		for c := range grid[r] {
			grid[r][c] = Wall
		}
	}

	carve(grid, StartPosition, rng)

	if _, err := placeGoal(grid); err != nil {
		return GameState{}, err
	}

	return GameState{
		Grid:   grid,
		Player: StartPosition,
		Won:    false,
	}, nil
}

// Regenerate discards any previous state and carves a new maze
func Regenerate(rows, cols int, rng RandSource) (GameState, error) {
	return Generate(rows, cols, rng)
}

// carve opens passages from start using an explicit stack instead of recursion.
// Every wall candidate strictly inside the border is taken when reached, which keeps
// the passage graph a spanning tree of the odd cells.
func carve(grid Grid, start Position, rng RandSource) {
	rows, cols := grid.Rows(), grid.Cols()
	interior := func(p Position) bool {
		return p.Row > 0 && p.Row < rows-1 && p.Col > 0 && p.Col < cols-1
	}

	grid[start.Row][start.Col] = Path
	stack := []*carveFrame{newCarveFrame(start, rng)}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next == len(top.dirs) {
			stack = stack[:len(stack)-1]
			continue
		}

		d := top.dirs[top.next]
		top.next++

		dRow, dCol := d.Delta()
		candidate := top.pos.Add(2*dRow, 2*dCol)
		if !interior(candidate) || grid[candidate.Row][candidate.Col] != Wall {
			continue
		}

		between := top.pos.Add(dRow, dCol)
		grid[between.Row][between.Col] = Path
		grid[candidate.Row][candidate.Col] = Path
		stack = append(stack, newCarveFrame(candidate, rng))
	}
}

func newCarveFrame(pos Position, rng RandSource) *carveFrame {
	f := &carveFrame{pos: pos}
	copy(f.dirs[:], AllDirections)
	shuffleDirections(f.dirs[:], rng)
	return f
}

// placeGoal scans from the bottom-right corner (row-major, both descending)
// and turns the first path cell into the goal.
func placeGoal(grid Grid) (Position, error) {
	for r := grid.Rows() - 2; r >= 0; r-- {
		for c := grid.Cols() - 2; c >= 0; c-- {
			if grid[r][c] == Path {
				grid[r][c] = Goal
				return Position{Row: r, Col: c}, nil
			}
		}
	}
	return Position{}, &InvariantViolation{Reason: "no path cell available for the goal"}
}
