package engine

import "fmt"

// Solve finds the shortest path from `from` to the goal using breadth-first search.
// In a perfect maze it is the only simple path. The returned slice starts at `from`
// and ends on the goal.
func Solve(grid Grid, from Position) ([]Position, bool) {
	if grid.At(from) == Wall {
		return nil, false
	}

	prev := make(map[Position]Position)
	visited := map[Position]bool{from: true}
	queue := []Position{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if grid.At(current) == Goal {
			path := []Position{current}
			for current != from {
				current = prev[current]
				path = append(path, current)
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path, true
		}

		for _, d := range AllDirections {
			dRow, dCol := d.Delta()
			next := current.Add(dRow, dCol)
			if visited[next] || grid.At(next) == Wall {
				continue
			}
			visited[next] = true
			prev[next] = current
			queue = append(queue, next)
		}
	}

	return nil, false
}

// PathDirections converts a path of adjacent positions into the moves that walk it
func PathDirections(path []Position) []Direction {
	if len(path) < 2 {
		return nil
	}
	dirs := make([]Direction, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		d, ok := DirectionBetween(path[i-1], path[i])
		if !ok {
			return dirs
		}
		dirs = append(dirs, d)
	}
	return dirs
}

// disjointSet is a union-find over flattened cell indices
type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(n int) *disjointSet {
	ds := &disjointSet{parent: make([]int, n), rank: make([]int, n)}
	for i := range ds.parent {
		ds.parent[i] = i
	}
	return ds
}

func (ds *disjointSet) find(x int) int {
	for ds.parent[x] != x {
		ds.parent[x] = ds.parent[ds.parent[x]]
		x = ds.parent[x]
	}
	return x
}

// union joins the sets holding a and b and reports false if they were already joined
func (ds *disjointSet) union(a, b int) bool {
	ra, rb := ds.find(a), ds.find(b)
	if ra == rb {
		return false
	}
	switch {
	case ds.rank[ra] < ds.rank[rb]:
		ds.parent[ra] = rb
	case ds.rank[ra] > ds.rank[rb]:
		ds.parent[rb] = ra
	default:
		ds.parent[rb] = ra
		ds.rank[ra]++
	}
	return true
}

// VerifyPerfect checks the structural invariants of a generated maze: walled border,
// exactly one goal, and a passage graph over odd cells that is a single tree.
func VerifyPerfect(grid Grid) error {
	rows, cols := grid.Rows(), grid.Cols()
	if err := ValidateDimensions(rows, cols); err != nil {
		return err
	}
	for _, row := range grid {
		if len(row) != cols {
			return &InvariantViolation{Reason: "grid rows have different lengths"}
		}
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			onBorder := r == 0 || r == rows-1 || c == 0 || c == cols-1
			if onBorder && grid[r][c] != Wall {
				return &InvariantViolation{Reason: fmt.Sprintf("border cell (%d,%d) is %s", r, c, grid[r][c])}
			}
			if r%2 == 0 && c%2 == 0 && grid[r][c] != Wall {
				return &InvariantViolation{Reason: fmt.Sprintf("pillar cell (%d,%d) is %s", r, c, grid[r][c])}
			}
		}
	}

	if goals := CountCells(grid, Goal); goals != 1 {
		return &InvariantViolation{Reason: fmt.Sprintf("expected exactly one goal, found %d", goals)}
	}
	if grid.At(StartPosition) == Wall {
		return &InvariantViolation{Reason: "start cell is a wall"}
	}

	ds := newDisjointSet(rows * cols)
	nodes, edges := 0, 0
	for r := 1; r < rows-1; r++ {
		for c := 1; c < cols-1; c++ {
			if grid[r][c] == Wall {
				continue
			}
			if r%2 == 1 && c%2 == 1 {
				nodes++
				continue
			}

			// An open cell between two nodes is an edge joining them
			var a, b Position
			if r%2 == 1 {
				a, b = Position{Row: r, Col: c - 1}, Position{Row: r, Col: c + 1}
			} else {
				a, b = Position{Row: r - 1, Col: c}, Position{Row: r + 1, Col: c}
			}
			if grid.At(a) == Wall || grid.At(b) == Wall {
				return &InvariantViolation{Reason: fmt.Sprintf("passage (%d,%d) leads into a wall", r, c)}
			}
			edges++
			if !ds.union(a.Row*cols+a.Col, b.Row*cols+b.Col) {
				return &InvariantViolation{Reason: fmt.Sprintf("passage (%d,%d) closes a cycle", r, c)}
			}
		}
	}

	if edges != nodes-1 {
		return &InvariantViolation{Reason: fmt.Sprintf("passage graph is disconnected: %d nodes, %d edges", nodes, edges)}
	}

	return nil
}
