package service

import (
	"time"

	"github.com/wricardo/mcp-training/mazegame/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.PlayState  `json:"game_state"`
	GameConfig     *engine.MazeConfig `json:"game_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool              `json:"success"`
	GameState   *engine.PlayState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.PlayState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // blocked_wall|blocked_boundary|invalid_direction|already_won|victory
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos engine.Position `json:"start_pos"`
	EndPos   engine.Position `json:"end_pos"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Failure diagnostics
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	// Final status aids
	Won            bool     `json:"won"`
	Message        string   `json:"message,omitempty"`
	PossibleMoves  []string `json:"possible_moves,omitempty"`
	LocalView3x3   []string `json:"local_view_3x3,omitempty"`
	DistanceToGoal int      `json:"distance_to_goal"`
}

// StepInfo is a compact record for each executed move in the bulk call
type StepInfo struct {
	Idx      int             `json:"idx"`
	Dir      string          `json:"dir"`
	From     engine.Position `json:"from"`
	To       engine.Position `json:"to"`
	TileChar string          `json:"tile_char"`
	TileType string          `json:"tile_type"`
	Success  bool            `json:"success"`
	Victory  bool            `json:"victory,omitempty"`
}

// AttemptInfo details the first failed target cell attempted
type AttemptInfo struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	TileChar string `json:"tile_char"`
	TileType string `json:"tile_type"`
	Passable bool   `json:"passable"`
}

// KeyResult is the outcome of a key forwarded from a host UI
type KeyResult struct {
	Key       string            `json:"key"`
	Action    string            `json:"action"` // "move", "regenerate" or "ignored"
	Success   bool              `json:"success"`
	GameState *engine.PlayState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// HintResult suggests the next move toward the goal
type HintResult struct {
	Direction      string          `json:"direction,omitempty"`
	Available      bool            `json:"available"`
	Position       engine.Position `json:"position"`
	DistanceToGoal int             `json:"distance_to_goal"`
	Message        string          `json:"message"`
}

// RenderResult is a text drawing of the maze
type RenderResult struct {
	Lines      []string        `json:"lines"`
	Rows       int             `json:"rows"`
	Cols       int             `json:"cols"`
	Player     engine.Position `json:"player_pos"`
	Goal       engine.Position `json:"goal"`
	Won        bool            `json:"won"`
	Generation int             `json:"generation"`
	Legend     string          `json:"legend"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "move", "blocked", "victory", "reset", "regenerate"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a maze preset
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	Seed        int64  `json:"seed,omitempty"`
}
