package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/mcp-training/mazegame/game/engine"
)

// RenderLegend explains the characters used by Render
const RenderLegend = "# wall, . path, G goal, @ player"

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.MazeConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s': %w. Available configs: %v", configName, err, configIDs)
				}
				return nil, fmt.Errorf("config '%s': %w. Use /api/configs to list available configurations", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	logrus.WithFields(logrus.Fields{
		"session": sess.ID,
		"config":  configID,
		"seed":    sess.Engine.GetState().Seed,
	}).Info("session created")

	return s.sessionInfo(sess, configID), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(sess, s.getConfigID(sess.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	logrus.WithField("session", sessionID).Info("session deleted")
	return nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, regenerate bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}
	if regenerate {
		ev, err := s.regenerateLocked(sess)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	result := s.moveLocked(sess, direction)
	result.Events = append(events, result.Events...)

	s.persist(sessionID, "move")
	return result, nil
}

// moveLocked applies one move; the caller holds s.mu
func (s *gameServiceImpl) moveLocked(sess *Session, direction string) *MoveResult {
	prevPos := sess.Engine.GetPlayerPosition()
	success := sess.Engine.Move(direction)
	state := sess.Engine.GetState()

	result := &MoveResult{
		Success:   success,
		GameState: state,
		Message:   state.Message,
	}

	if success {
		step := buildStep(1, direction, prevPos, state)
		result.Step = &step
		result.Events = moveEvents(direction, state)
	} else {
		result.AttemptedTo = attemptedCell(state, prevPos, direction)
		result.Events = []GameEvent{{
			Type:      "blocked",
			Message:   state.Message,
			Timestamp: time.Now(),
			Position:  prevPos,
		}}
	}

	fields := logrus.Fields{
		"session":   sess.ID,
		"direction": direction,
		"success":   success,
		"row":       state.Player.Row,
		"col":       state.Player.Col,
	}
	if success && state.Won {
		logrus.WithFields(fields).WithField("moves", state.CurrentMovesCount).Info("maze solved")
	} else {
		logrus.WithFields(fields).Debug("move")
	}

	return result
}

// regenerateLocked carves a new maze for the session; the caller holds s.mu
func (s *gameServiceImpl) regenerateLocked(sess *Session) (GameEvent, error) {
	state, err := sess.Engine.Regenerate()
	if err != nil {
		return GameEvent{}, fmt.Errorf("failed to regenerate maze: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"session":    sess.ID,
		"seed":       state.Seed,
		"generation": state.Generation,
	}).Info("maze regenerated")

	return GameEvent{
		Type:      "regenerate",
		Message:   fmt.Sprintf("New %dx%d maze (generation %d)", state.Rows, state.Cols, state.Generation),
		Timestamp: time.Now(),
		Position:  state.Player,
	}, nil
}

// BulkMove executes multiple moves in sequence
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, regenerate bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if regenerate {
		ev, err := s.regenerateLocked(sess)
		if err != nil {
			return nil, err
		}
		result.Events = append(result.Events, ev)
	}

	result.StartPos = sess.Engine.GetPlayerPosition()

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, move := range moves {
		if sess.Engine.IsWon() {
			result.Success = false
			result.StoppedReason = "maze already solved, regenerate to play again"
			result.StopReasonCode = "already_won"
			result.StoppedOnMove = i + 1
			break
		}

		prevPos := sess.Engine.GetPlayerPosition()
		if !sess.Engine.Move(move) {
			state := sess.Engine.GetState()
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d blocked: %s", i+1, move)
			result.StoppedOnMove = i + 1
			result.AttemptedTo = attemptedCell(state, prevPos, move)
			switch {
			case result.AttemptedTo == nil:
				result.StopReasonCode = "invalid_direction"
			case result.AttemptedTo.TileType == "boundary":
				result.StopReasonCode = "blocked_boundary"
			default:
				result.StopReasonCode = "blocked_wall"
			}
			result.Events = append(result.Events, GameEvent{
				Type:      "blocked",
				Message:   state.Message,
				Timestamp: time.Now(),
				Position:  prevPos,
			})
			break
		}

		result.MovesExecuted++
		state := sess.Engine.GetState()
		result.Steps = append(result.Steps, buildStep(i+1, move, prevPos, state))
		result.Events = append(result.Events, moveEvents(move, state)...)

		if state.Won {
			result.StoppedReason = "goal reached"
			result.StopReasonCode = "victory"
			result.StoppedOnMove = i + 1
			break
		}
	}

	endState := sess.Engine.GetState()
	result.GameState = endState
	result.EndPos = endState.Player
	result.Won = endState.Won
	result.Message = endState.Message
	result.PossibleMoves = sess.Engine.GetPossibleMoves()
	result.LocalView3x3 = endState.LocalView3x3
	result.DistanceToGoal = endState.Distance

	logrus.WithFields(logrus.Fields{
		"session":   sessionID,
		"requested": result.RequestedMoves,
		"executed":  result.MovesExecuted,
		"stop":      result.StopReasonCode,
	}).Debug("bulk move")

	s.persist(sessionID, "bulk move")
	return result, nil
}

// HandleKey forwards a key press from a host UI to the session's engine.
// Unknown keys are ignored and leave the state untouched.
func (s *gameServiceImpl) HandleKey(ctx context.Context, sessionID, key string) (*KeyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	action, err := engine.ParseKey(key)
	if err != nil {
		state := sess.Engine.GetState()
		logrus.WithFields(logrus.Fields{"session": sessionID, "key": key}).Debug("ignoring unmapped key")
		return &KeyResult{
			Key:       key,
			Action:    "ignored",
			GameState: state,
			Message:   state.Message,
		}, nil
	}

	result := &KeyResult{Key: key}
	switch action.Kind {
	case engine.ActionRegenerate:
		ev, err := s.regenerateLocked(sess)
		if err != nil {
			return nil, err
		}
		result.Action = "regenerate"
		result.Success = true
		result.Events = []GameEvent{ev}
	case engine.ActionMove:
		moveResult := s.moveLocked(sess, string(action.Direction))
		result.Action = "move"
		result.Success = moveResult.Success
		result.Events = moveResult.Events
	}

	state := sess.Engine.GetState()
	result.GameState = state
	result.Message = state.Message

	s.persist(sessionID, "key")
	return result, nil
}

// Reset puts the player back on the start of the current maze
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.PlayState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset()

	s.persist(sessionID, "reset")
	return state, nil
}

// Regenerate replaces the session's maze with a new one
func (s *gameServiceImpl) Regenerate(ctx context.Context, sessionID string) (*engine.PlayState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	if _, err := s.regenerateLocked(sess); err != nil {
		return nil, err
	}

	s.persist(sessionID, "regenerate")
	return sess.Engine.GetState(), nil
}

// Hint returns the next step on the shortest path to the goal
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*HintResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	state := sess.Engine.GetState()
	result := &HintResult{
		Position:       state.Player,
		DistanceToGoal: state.Distance,
	}

	dir, ok := sess.Engine.Hint()
	switch {
	case state.Won:
		result.Message = "Maze already solved. Regenerate for a new one."
	case !ok:
		result.Message = "No path to the goal from here."
	default:
		result.Available = true
		result.Direction = string(dir)
		result.Message = fmt.Sprintf("Go %s. The goal is %d moves away.", dir, state.Distance)
	}

	return result, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.PlayState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// Render draws the session's maze as text
func (s *gameServiceImpl) Render(ctx context.Context, sessionID string) (*RenderResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	state := sess.Engine.GetState()
	return &RenderResult{
		Lines:      engine.Render(state.GameState),
		Rows:       state.Grid.Rows(),
		Cols:       state.Grid.Cols(),
		Player:     state.Player,
		Goal:       state.Goal,
		Won:        state.Won,
		Generation: state.Generation,
		Legend:     RenderLegend,
	}, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available maze presets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific maze preset
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.MazeConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a maze preset to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.MazeConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ReloadConfigs re-reads one preset from disk, or every preset when name is empty.
// Running sessions keep the preset they were created with.
func (s *gameServiceImpl) ReloadConfigs(ctx context.Context, name string) error {
	if name == "" {
		if err := s.configs.RefreshCache(); err != nil {
			return fmt.Errorf("failed to reload configs: %w", err)
		}
		logrus.Info("maze configs reloaded")
		return nil
	}

	if err := s.configs.ReloadConfig(name); err != nil {
		return fmt.Errorf("failed to reload config %s: %w", name, err)
	}
	logrus.WithField("config", name).Info("maze config reloaded")
	return nil
}

// persist saves the session and only logs on failure
func (s *gameServiceImpl) persist(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		logrus.WithError(err).WithField("session", sessionID).Warnf("failed to persist session after %s", after)
	}
}

// moveEvents describes a successful step
func moveEvents(direction string, state *engine.PlayState) []GameEvent {
	events := []GameEvent{{
		Type:      "move",
		Message:   fmt.Sprintf("Moved %s to (%d,%d)", direction, state.Player.Row, state.Player.Col),
		Timestamp: time.Now(),
		Position:  state.Player,
	}}

	if state.Won {
		events = append(events, GameEvent{
			Type:      "victory",
			Message:   state.Message,
			Timestamp: time.Now(),
			Position:  state.Player,
		})
	}

	return events
}

func buildStep(idx int, direction string, from engine.Position, state *engine.PlayState) StepInfo {
	tileChar, tileType := mapCellToCharAndType(state.Grid.At(state.Player))
	return StepInfo{
		Idx:      idx,
		Dir:      direction,
		From:     from,
		To:       state.Player,
		TileChar: tileChar,
		TileType: tileType,
		Success:  true,
		Victory:  state.Won,
	}
}

// attemptedCell describes the cell a failed move tried to enter, or nil for an unknown direction
func attemptedCell(state *engine.PlayState, from engine.Position, direction string) *AttemptInfo {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil
	}
	dRow, dCol := dir.Delta()
	target := from.Add(dRow, dCol)

	if !state.Grid.InBounds(target.Row, target.Col) {
		return &AttemptInfo{Row: target.Row, Col: target.Col, TileChar: "#", TileType: "boundary"}
	}

	cell := state.Grid[target.Row][target.Col]
	tileChar, tileType := mapCellToCharAndType(cell)
	return &AttemptInfo{
		Row:      target.Row,
		Col:      target.Col,
		TileChar: tileChar,
		TileType: tileType,
		Passable: cell != engine.Wall,
	}
}

func mapCellToCharAndType(cell engine.CellType) (string, string) {
	switch cell {
	case engine.Path:
		return ".", "path"
	case engine.Goal:
		return "G", "goal"
	case engine.Wall:
		return "#", "wall"
	default:
		return "?", "unknown"
	}
}
