package engine

import "strings"

// FindGoal returns the position of the goal cell
func FindGoal(grid Grid) (Position, bool) {
	for r, row := range grid {
		for c, cell := range row {
			if cell == Goal {
				return Position{Row: r, Col: c}, true
			}
		}
	}
	return Position{}, false
}

// CountCells counts the cells of a specific type in the grid
func CountCells(grid Grid, cellType CellType) int {
	count := 0
	for _, row := range grid {
		for _, cell := range row {
			if cell == cellType {
				count++
			}
		}
	}
	return count
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dr := from.Row - to.Row
	if dr < 0 {
		dr = -dr
	}
	dc := from.Col - to.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// Stats summarizes the shape of a maze
type Stats struct {
	Rows           int `json:"rows"`
	Cols           int `json:"cols"`
	OpenCells      int `json:"open_cells"`
	DeadEnds       int `json:"dead_ends"`
	Junctions      int `json:"junctions"`
	SolutionLength int `json:"solution_length"`
}

// Analyze counts dead ends (one open neighbour), junctions (three or more)
// and the number of moves on the solution path from the start.
func Analyze(grid Grid) Stats {
	stats := Stats{Rows: grid.Rows(), Cols: grid.Cols()}

	for r, row := range grid {
		for c, cell := range row {
			if cell == Wall {
				continue
			}
			stats.OpenCells++

			pos := Position{Row: r, Col: c}
			open := 0
			for _, d := range AllDirections {
				dRow, dCol := d.Delta()
				if grid.At(pos.Add(dRow, dCol)) != Wall {
					open++
				}
			}
			switch {
			case open == 1:
				stats.DeadEnds++
			case open >= 3:
				stats.Junctions++
			}
		}
	}

	if path, ok := Solve(grid, StartPosition); ok {
		stats.SolutionLength = len(path) - 1
	}

	return stats
}

// Render draws the maze as text: '#' wall, '.' path, 'G' goal, '@' player
func Render(state GameState) []string {
	lines := make([]string, 0, state.Grid.Rows())
	for r, row := range state.Grid {
		var sb strings.Builder
		sb.Grow(len(row))
		for c, cell := range row {
			if state.Player.Row == r && state.Player.Col == c {
				sb.WriteByte('@')
				continue
			}
			sb.WriteByte(cellGlyph(cell))
		}
		lines = append(lines, sb.String())
	}
	return lines
}

func cellGlyph(cell CellType) byte {
	switch cell {
	case Path:
		return '.'
	case Goal:
		return 'G'
	default:
		return '#'
	}
}

// buildLocal3x3 renders the 3x3 neighbourhood of the player as three strings
func buildLocal3x3(state GameState) []string {
	rows := make([]string, 0, 3)
	for dr := -1; dr <= 1; dr++ {
		var sb strings.Builder
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				sb.WriteByte('@')
				continue
			}
			sb.WriteByte(cellGlyph(state.Grid.At(state.Player.Add(dr, dc))))
		}
		rows = append(rows, sb.String())
	}
	return rows
}
