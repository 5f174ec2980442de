package engine

// CellType represents the state of a single maze cell
type CellType string

const (
	Wall CellType = "wall"
	Path CellType = "path"
	Goal CellType = "goal"

	// Validation constants
	MinMazeSize  = 5
	MaxMazeSize  = 101
	MaxBulkMoves = 200

	StartRow = 1
	StartCol = 1
)

// Grid is a rows x cols matrix of cells, indexed as Grid[row][col]
type Grid [][]CellType

// Rows returns the number of rows in the grid
func (g Grid) Rows() int {
	return len(g)
}

// Cols returns the number of columns in the grid
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// InBounds reports whether (row, col) lies inside the grid
func (g Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.Rows() && col >= 0 && col < g.Cols()
}

// At returns the cell at pos, treating out of bounds as Wall
func (g Grid) At(pos Position) CellType {
	if !g.InBounds(pos.Row, pos.Col) {
		return Wall
	}
	return g[pos.Row][pos.Col]
}

// Position represents row,col coordinates (0-indexed)
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add returns the position offset by the given delta
func (p Position) Add(dRow, dCol int) Position {
	return Position{Row: p.Row + dRow, Col: p.Col + dCol}
}

// StartPosition is where the player is placed on every generation
var StartPosition = Position{Row: StartRow, Col: StartCol}

// GameState is one generated maze plus the player token on it.
// Grid is never mutated after carving; Player and Won are the only fields that change during play.
type GameState struct {
	Grid   Grid     `json:"grid"`
	Player Position `json:"player_pos"`
	Won    bool     `json:"won"`
}

// SurroundingCell represents a cell with its absolute position
type SurroundingCell struct {
	Row  int      `json:"row"`
	Col  int      `json:"col"`
	Type CellType `json:"type"`
}

// PlayState is the session-level view of a game: the maze state plus the
// bookkeeping a host needs to render and replay it.
type PlayState struct {
	GameState

	Rows       int      `json:"rows"`
	Cols       int      `json:"cols"`
	Seed       int64    `json:"seed"`
	Generation int      `json:"generation"`
	Goal       Position `json:"goal"`
	Message    string   `json:"message"`
	ConfigName string   `json:"config_name"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves made on the current maze. It is cleared on reset and
	// regenerate while MoveHistory stays cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	// Computed helper views (not required for core game logic)
	LocalView3x3 []string `json:"local_view_3x3,omitempty"`
	Distance     int      `json:"distance_to_goal,omitempty"`
}

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	Action       string   `json:"action"`
	FromPosition Position `json:"from_position"`
	ToPosition   Position `json:"to_position"`
	Generation   int      `json:"generation"`
	Timestamp    int64    `json:"timestamp"`
	Success      bool     `json:"success"`
	MoveNumber   int      `json:"move_number"`
}
