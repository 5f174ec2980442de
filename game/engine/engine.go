package engine

import (
	"fmt"
	"slices"
	"sync/atomic"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *PlayState
	SetState(state *PlayState) error
	Reset() *PlayState
	Regenerate() (*PlayState, error)
	IsWon() bool
	GetPlayerPosition() Position

	// Movement operations
	Move(direction string) bool
	CanMove(direction string) bool
	GetPossibleMoves() []string
	Hint() (Direction, bool)

	// Configuration
	GetConfig() *MazeConfig
	SetConfig(config *MazeConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Local view
	GetLocalView() []SurroundingCell
}

// GameEngine implements the Engine interface for a single session.
//
// The current PlayState is never changed in place: every operation builds a
// new state and swaps the pointer, so a state returned by GetState stays valid
// for readers after later moves. Mutating calls must still be serialized by the owner.
type GameEngine struct {
	state  atomic.Pointer[PlayState]
	config *MazeConfig
	seeds  RandSource
}

// NewEngine creates a new game engine and generates its first maze
func NewEngine(config *MazeConfig) (*GameEngine, error) {
	return NewEngineWithSource(config, newClockSource())
}

// NewEngineWithSource creates an engine whose maze seeds are drawn from seeds
func NewEngineWithSource(config *MazeConfig, seeds RandSource) (*GameEngine, error) {
	if err := ValidateMazeConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{config: config, seeds: seeds}
	state, err := e.newPlayState(e.pickSeed(), 1)
	if err != nil {
		return nil, err
	}
	e.state.Store(state)
	return e, nil
}

func (e *GameEngine) pickSeed() int64 {
	if e.config.Seed != 0 {
		return e.config.Seed
	}
	return nextSeed(e.seeds)
}

func (e *GameEngine) newPlayState(seed int64, generation int) (*PlayState, error) {
	gs, err := Generate(e.config.Rows, e.config.Cols, NewSeededSource(seed))
	if err != nil {
		return nil, err
	}
	goal, ok := FindGoal(gs.Grid)
	if !ok {
		return nil, &InvariantViolation{Reason: "generated maze has no goal"}
	}

	state := &PlayState{
		GameState:    gs,
		Rows:         e.config.Rows,
		Cols:         e.config.Cols,
		Seed:         seed,
		Generation:   generation,
		Goal:         goal,
		Message:      e.config.Messages.Welcome,
		ConfigName:   e.config.Name,
		MoveHistory:  []MoveHistoryEntry{},
		CurrentMoves: []MoveHistoryEntry{},
	}
	refreshViews(state)
	return state, nil
}

// refreshViews recomputes the helper fields derived from the grid and player
func refreshViews(state *PlayState) {
	state.LocalView3x3 = buildLocal3x3(state.GameState)
	state.Distance = 0
	if path, ok := Solve(state.Grid, state.Player); ok {
		state.Distance = len(path) - 1
	}
}

// next returns a shallow copy of the current state to build the replacement on.
// Slices are shared; appends go through appendMove, which never writes into them.
func (e *GameEngine) next() *PlayState {
	copied := *e.state.Load()
	return &copied
}

// GetState returns the current game state. Callers must treat it as read-only.
func (e *GameEngine) GetState() *PlayState {
	return e.state.Load()
}

// SetState sets the game state (used for persistence loading).
// The grid must be a well-formed perfect maze and the player must stand on an open cell.
func (e *GameEngine) SetState(state *PlayState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	for r, row := range state.Grid {
		for c, cell := range row {
			if cell != Wall && cell != Path && cell != Goal {
				return fmt.Errorf("invalid state: unknown cell %q at (%d,%d)", cell, r, c)
			}
		}
	}
	if err := VerifyPerfect(state.Grid); err != nil {
		return fmt.Errorf("invalid state: %w", err)
	}
	if !state.CanMoveTo(state.Player.Row, state.Player.Col) {
		return fmt.Errorf("invalid state: player at (%d,%d) is not on an open cell", state.Player.Row, state.Player.Col)
	}

	loaded := *state
	loaded.Rows = loaded.Grid.Rows()
	loaded.Cols = loaded.Grid.Cols()
	loaded.Goal, _ = FindGoal(loaded.Grid)
	loaded.Won = loaded.Grid.At(loaded.Player) == Goal
	loaded.MoveHistory = slices.Clone(state.MoveHistory)
	if loaded.MoveHistory == nil {
		loaded.MoveHistory = []MoveHistoryEntry{}
	}
	loaded.CurrentMoves = slices.Clone(state.CurrentMoves)
	if loaded.CurrentMoves == nil {
		loaded.CurrentMoves = []MoveHistoryEntry{}
	}
	refreshViews(&loaded)
	e.state.Store(&loaded)
	return nil
}

// Reset puts the player back on the start of the current maze.
// The grid and seed are kept; cumulative history survives, the current segment does not.
func (e *GameEngine) Reset() *PlayState {
	state := e.next()
	state.Player = StartPosition
	state.Won = false
	state.Message = e.config.Messages.Welcome
	state.CurrentMoves = []MoveHistoryEntry{}
	state.CurrentMovesCount = 0
	refreshViews(state)
	e.state.Store(state)
	return state
}

// Regenerate replaces the maze with a freshly carved one.
// The seed changes unless the config pins it.
func (e *GameEngine) Regenerate() (*PlayState, error) {
	prev := e.state.Load()
	next, err := e.newPlayState(e.pickSeed(), prev.Generation+1)
	if err != nil {
		return nil, err
	}

	next.MoveHistory = prev.MoveHistory
	next.TotalMoves = prev.TotalMoves
	next.Message = e.config.Messages.Regenerated

	e.state.Store(next)
	return next, nil
}

// IsWon returns whether the player has reached the goal
func (e *GameEngine) IsWon() bool {
	return e.state.Load().Won
}

// GetPlayerPosition returns the current player position
func (e *GameEngine) GetPlayerPosition() Position {
	return e.state.Load().Player
}

// Move attempts to move the player in the specified direction.
// Blocked and unknown moves are recorded in history and leave the player in place.
func (e *GameEngine) Move(direction string) bool {
	state := e.next()
	prevPos := state.Player

	dir, err := ParseDirection(direction)
	if err != nil {
		state.Message = fmt.Sprintf("Unknown direction %q", direction)
		appendMove(state, direction, prevPos, prevPos, false)
		e.state.Store(state)
		return false
	}

	if state.Won {
		state.Message = e.config.Messages.AlreadyWon
		appendMove(state, string(dir), prevPos, prevPos, false)
		e.state.Store(state)
		return false
	}

	dRow, dCol := dir.Delta()
	state.GameState = AttemptMove(state.GameState, dRow, dCol)
	success := state.Player != prevPos
	appendMove(state, string(dir), prevPos, state.Player, success)

	switch {
	case state.Won:
		state.Message = fmt.Sprintf(e.config.Messages.Victory, state.CurrentMovesCount)
	case success:
		state.Message = e.config.Messages.Moved
	default:
		state.Message = e.config.Messages.Blocked
	}

	refreshViews(state)
	e.state.Store(state)
	return success
}

// appendMove records a move on state. The history slices are clipped first so
// the append always allocates and earlier states keep their own backing arrays.
func appendMove(state *PlayState, action string, fromPos, toPos Position, success bool) {
	entry := MoveHistoryEntry{
		Action:       action,
		FromPosition: fromPos,
		ToPosition:   toPos,
		Generation:   state.Generation,
		Timestamp:    time.Now().Unix(),
		Success:      success,
		MoveNumber:   state.TotalMoves + 1,
	}
	state.MoveHistory = append(slices.Clip(state.MoveHistory), entry)
	state.TotalMoves++

	state.CurrentMoves = append(slices.Clip(state.CurrentMoves), entry)
	state.CurrentMovesCount++
}

// CanMove checks if the player can move in the specified direction
func (e *GameEngine) CanMove(direction string) bool {
	state := e.state.Load()
	if state.Won {
		return false
	}
	dir, err := ParseDirection(direction)
	if err != nil {
		return false
	}
	dRow, dCol := dir.Delta()
	target := state.Player.Add(dRow, dCol)
	return state.CanMoveTo(target.Row, target.Col)
}

// GetPossibleMoves returns all valid directions the player can move
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, dir := range AllDirections {
		if e.CanMove(string(dir)) {
			possible = append(possible, string(dir))
		}
	}
	return possible
}

// Hint returns the first step of the solution from the player's position
func (e *GameEngine) Hint() (Direction, bool) {
	state := e.state.Load()
	if state.Won {
		return "", false
	}
	path, ok := Solve(state.Grid, state.Player)
	if !ok {
		return "", false
	}
	dirs := PathDirections(path)
	if len(dirs) == 0 {
		return "", false
	}
	return dirs[0], true
}

// GetConfig returns the current maze configuration
func (e *GameEngine) GetConfig() *MazeConfig {
	return e.config
}

// SetConfig sets a new maze configuration and generates a fresh maze from it
func (e *GameEngine) SetConfig(config *MazeConfig) error {
	if err := ValidateMazeConfig(config); err != nil {
		return err
	}

	prev := e.config
	e.config = config
	state, err := e.newPlayState(e.pickSeed(), 1)
	if err != nil {
		e.config = prev
		return err
	}
	e.state.Store(state)
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.Load().MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	history := e.state.Load().MoveHistory
	if len(history) == 0 {
		return nil
	}
	last := history[len(history)-1]
	return &last
}

// GetLocalView returns the local view around the player
func (e *GameEngine) GetLocalView() []SurroundingCell {
	return e.state.Load().GenerateLocalView()
}

// BulkMove executes multiple moves in sequence, returning success status for each.
// It stops once the goal is reached.
func (e *GameEngine) BulkMove(moves []string) []bool {
	results := make([]bool, 0, len(moves))

	for _, direction := range moves {
		if e.IsWon() {
			break
		}
		results = append(results, e.Move(direction))
	}

	return results
}
