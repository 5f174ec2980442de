package engine

import "testing"

// gridFromRows builds a grid from '#', '.' and 'G' rows
func gridFromRows(t *testing.T, rows ...string) Grid {
	t.Helper()
	grid := make(Grid, len(rows))
	for r, row := range rows {
		grid[r] = make([]CellType, len(row))
		for c, ch := range row {
			switch ch {
			case '#':
				grid[r][c] = Wall
			case '.':
				grid[r][c] = Path
			case 'G':
				grid[r][c] = Goal
			default:
				t.Fatalf("unexpected cell %q at (%d,%d)", ch, r, c)
			}
		}
	}
	return grid
}

// smallMaze is a hand-carved perfect 5x5 maze whose solution is right, right, down, down
func smallMaze(t *testing.T) GameState {
	return GameState{
		Grid: gridFromRows(t,
			"#####",
			"#...#",
			"#.#.#",
			"#.#G#",
			"#####",
		),
		Player: StartPosition,
	}
}

// zeroSource always returns 0
type zeroSource struct{}

func (zeroSource) IntN(int) int { return 0 }

// countingSource wraps a source and counts calls
type countingSource struct {
	inner RandSource
	calls int
}

func (c *countingSource) IntN(n int) int {
	c.calls++
	return c.inner.IntN(n)
}

func testMazeConfig() *MazeConfig {
	return &MazeConfig{
		Name:        "Engine Test",
		Description: "Configuration for engine tests",
		Rows:        11,
		Cols:        11,
		Seed:        7,
		Messages: MazeMessages{
			Welcome:     "Welcome to engine test!",
			Moved:       "Moved.",
			Blocked:     "Blocked!",
			Victory:     "Goal reached in %d moves!",
			AlreadyWon:  "Already won!",
			Regenerated: "New maze!",
		},
	}
}
