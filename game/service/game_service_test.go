package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/mazegame/game/engine"
	"github.com/wricardo/mcp-training/mazegame/game/service"
	"github.com/wricardo/mcp-training/mazegame/game/session"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	saves    int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, config *engine.MazeConfig) (*service.Session, error) {
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config *engine.MazeConfig) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Save(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	m.saves++
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.MazeConfig
	reloads []string
}

func testConfig() *engine.MazeConfig {
	return &engine.MazeConfig{
		Name:        "test",
		Description: "Test configuration",
		Rows:        9,
		Cols:        9,
		Seed:        31,
		Messages: engine.MazeMessages{
			Welcome:     "Welcome to test!",
			Moved:       "Moved.",
			Blocked:     "Wall!",
			Victory:     "Solved in %d moves!",
			AlreadyWon:  "Already solved!",
			Regenerated: "New maze!",
		},
	}
}

func NewMockConfigManager() *MockConfigManager {
	defaultConfig := testConfig()
	return &MockConfigManager{
		configs: map[string]*engine.MazeConfig{
			"test":    defaultConfig,
			"default": defaultConfig,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.MazeConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			Rows:        config.Rows,
			Cols:        config.Cols,
			Seed:        config.Seed,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.MazeConfig {
	return m.configs["default"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.MazeConfig) error {
	if err := engine.ValidateMazeConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

func (m *MockConfigManager) ReloadConfig(name string) error {
	if _, exists := m.configs[name]; !exists {
		return service.ErrConfigNotFound
	}
	m.reloads = append(m.reloads, name)
	return nil
}

func (m *MockConfigManager) RefreshCache() error {
	m.reloads = append(m.reloads, "*")
	return nil
}

func newTestService(t *testing.T) (service.GameService, *MockSessionManager, *service.SessionInfo) {
	t.Helper()
	sessions := NewMockSessionManager()
	svc := service.NewGameService(sessions, NewMockConfigManager())

	info, err := svc.CreateSession(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return svc, sessions, info
}

// solution returns the moves from the current position to the goal
func solution(t *testing.T, state *engine.PlayState) []string {
	t.Helper()
	path, ok := engine.Solve(state.Grid, state.Player)
	if !ok {
		t.Fatal("Expected maze to be solvable")
	}
	var moves []string
	for _, d := range engine.PathDirections(path) {
		moves = append(moves, string(d))
	}
	return moves
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	tests := []struct {
		name       string
		configName string
		wantErr    bool
	}{
		{"create with default config", "", false},
		{"create with specific config", "test", false},
		{"create with invalid config", "nonexistent", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.CreateSession(ctx, tt.configName)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !strings.Contains(err.Error(), "Available configs") {
					t.Errorf("Expected available configs in error, got %v", err)
				}
				if !errors.Is(err, service.ErrConfigNotFound) {
					t.Errorf("Expected ErrConfigNotFound, got %v", err)
				}
				return
			}
			if session == nil || session.GameState == nil {
				t.Fatal("CreateSession() returned nil session or state")
			}
			if session.GameState.Player != engine.StartPosition {
				t.Errorf("Expected player at start, got %+v", session.GameState.Player)
			}
		})
	}
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()
	svc, _, info := newTestService(t)

	tests := []struct {
		name       string
		sessionID  string
		direction  string
		regenerate bool
		wantErr    bool
	}{
		{"blocked move up", info.ID, "up", false, false},
		{"move with regenerate", info.ID, "right", true, false},
		{"invalid session", "nonexistent", "up", false, true},
		{"invalid direction", info.ID, "diagonal", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Move(ctx, tt.sessionID, tt.direction, tt.regenerate)
			if (err != nil) != tt.wantErr {
				t.Errorf("Move() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && result == nil {
				t.Error("Move() returned nil result")
			}
		})
	}
}

func TestGameService_MoveDetails(t *testing.T) {
	ctx := context.Background()
	svc, sessions, info := newTestService(t)

	// Up from (1,1) is always the border
	blocked, err := svc.Move(ctx, info.ID, "up", false)
	if err != nil {
		t.Fatalf("Move up failed: %v", err)
	}
	if blocked.Success {
		t.Error("Expected move into the border to fail")
	}
	if blocked.AttemptedTo == nil || blocked.AttemptedTo.TileChar != "#" || blocked.AttemptedTo.Passable {
		t.Errorf("Expected impassable wall in AttemptedTo, got %+v", blocked.AttemptedTo)
	}
	if blocked.Message != "Wall!" {
		t.Errorf("Expected blocked message, got %q", blocked.Message)
	}

	first := solution(t, info.GameState)[0]
	moved, err := svc.Move(ctx, info.ID, first, false)
	if err != nil {
		t.Fatalf("Move %s failed: %v", first, err)
	}
	if !moved.Success || moved.Step == nil {
		t.Fatalf("Expected success with StepInfo, got %+v", moved)
	}
	if moved.Step.Dir != first || moved.Step.TileChar == "" || moved.Step.From != engine.StartPosition {
		t.Errorf("Invalid StepInfo: %+v", moved.Step)
	}
	if len(moved.Events) == 0 || moved.Events[0].Type != "move" {
		t.Errorf("Expected a move event, got %+v", moved.Events)
	}

	if sessions.saves < 2 {
		t.Errorf("Expected session to be saved after each move, got %d saves", sessions.saves)
	}
}

func TestGameService_MoveToVictory(t *testing.T) {
	ctx := context.Background()
	svc, _, info := newTestService(t)

	var last *service.MoveResult
	for _, move := range solution(t, info.GameState) {
		res, err := svc.Move(ctx, info.ID, move, false)
		if err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		last = res
	}

	if !last.GameState.Won {
		t.Fatal("Expected the game to be won")
	}
	if !last.Step.Victory {
		t.Error("Expected final step to be marked as victory")
	}
	hasVictory := false
	for _, ev := range last.Events {
		if ev.Type == "victory" {
			hasVictory = true
		}
	}
	if !hasVictory {
		t.Error("Expected a victory event")
	}

	// Moves after winning are no-ops until regeneration
	after, _ := svc.Move(ctx, info.ID, "up", false)
	if after.Success || after.Message != "Already solved!" {
		t.Errorf("Expected already-won no-op, got success=%v message=%q", after.Success, after.Message)
	}

	regen, err := svc.Move(ctx, info.ID, "up", true)
	if err != nil {
		t.Fatalf("Move with regenerate failed: %v", err)
	}
	if regen.GameState.Won || regen.GameState.Generation != 2 {
		t.Errorf("Expected a new game in generation 2, got won=%v gen=%d", regen.GameState.Won, regen.GameState.Generation)
	}
	if regen.Events[0].Type != "regenerate" {
		t.Errorf("Expected regenerate event first, got %+v", regen.Events)
	}
}

func TestGameService_BulkMove(t *testing.T) {
	ctx := context.Background()

	t.Run("solves the maze and stops on victory", func(t *testing.T) {
		svc, _, info := newTestService(t)
		moves := solution(t, info.GameState)

		result, err := svc.BulkMove(ctx, info.ID, append(moves, "up", "up"), false)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if !result.Success || !result.Won {
			t.Errorf("Expected successful win, got %+v", result)
		}
		if result.MovesExecuted != len(moves) {
			t.Errorf("Expected %d executed moves, got %d", len(moves), result.MovesExecuted)
		}
		if result.StopReasonCode != "victory" || result.StoppedOnMove != len(moves) {
			t.Errorf("Expected victory stop on move %d, got %q on %d", len(moves), result.StopReasonCode, result.StoppedOnMove)
		}
		if len(result.Steps) != len(moves) || result.EndPos != result.GameState.Goal {
			t.Errorf("Expected to end on the goal with one step per move")
		}
		if result.RequestedMoves != len(moves)+2 {
			t.Errorf("Expected requested moves %d, got %d", len(moves)+2, result.RequestedMoves)
		}
	})

	t.Run("stops at first blocked move", func(t *testing.T) {
		svc, _, info := newTestService(t)
		first := solution(t, info.GameState)[0]

		result, err := svc.BulkMove(ctx, info.ID, []string{first, "up", "up"}, false)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		// Right then up hits the border; down then up returns to (1,1) and the next up hits it
		if result.Success || result.StoppedOnMove < 2 || result.AttemptedTo == nil {
			t.Errorf("Expected stop with diagnostics, got %+v", result)
		}
		if result.StopReasonCode != "blocked_wall" {
			t.Errorf("Expected blocked_wall, got %q", result.StopReasonCode)
		}
	})

	t.Run("invalid direction", func(t *testing.T) {
		svc, _, info := newTestService(t)

		result, err := svc.BulkMove(ctx, info.ID, []string{"sideways"}, false)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if result.Success || result.StopReasonCode != "invalid_direction" || result.AttemptedTo != nil {
			t.Errorf("Expected invalid_direction stop, got %+v", result)
		}
	})

	t.Run("truncates long requests", func(t *testing.T) {
		svc, _, info := newTestService(t)

		moves := make([]string, engine.MaxBulkMoves+50)
		for i := range moves {
			moves[i] = "up"
		}
		result, err := svc.BulkMove(ctx, info.ID, moves, false)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if !result.Truncated || result.Limit != engine.MaxBulkMoves {
			t.Errorf("Expected truncation to %d, got truncated=%v limit=%d", engine.MaxBulkMoves, result.Truncated, result.Limit)
		}
	})

	t.Run("already won", func(t *testing.T) {
		svc, _, info := newTestService(t)
		svc.BulkMove(ctx, info.ID, solution(t, info.GameState), false)

		result, err := svc.BulkMove(ctx, info.ID, []string{"up"}, false)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if result.StopReasonCode != "already_won" || result.MovesExecuted != 0 {
			t.Errorf("Expected already_won stop, got %+v", result)
		}
	})

	t.Run("invalid session", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		if _, err := svc.BulkMove(ctx, "nope", []string{"up"}, false); err == nil {
			t.Error("Expected error for unknown session")
		}
	})
}

func TestGameService_HandleKey(t *testing.T) {
	ctx := context.Background()
	svc, _, info := newTestService(t)

	ignored, err := svc.HandleKey(ctx, info.ID, "Enter")
	if err != nil {
		t.Fatalf("HandleKey failed: %v", err)
	}
	if ignored.Action != "ignored" || ignored.Success {
		t.Errorf("Expected unmapped key to be ignored, got %+v", ignored)
	}
	if ignored.GameState.TotalMoves != 0 {
		t.Error("Expected ignored key to leave history untouched")
	}

	blocked, err := svc.HandleKey(ctx, info.ID, "ArrowUp")
	if err != nil {
		t.Fatalf("HandleKey failed: %v", err)
	}
	if blocked.Action != "move" || blocked.Success {
		t.Errorf("Expected blocked move, got %+v", blocked)
	}

	regen, err := svc.HandleKey(ctx, info.ID, "r")
	if err != nil {
		t.Fatalf("HandleKey failed: %v", err)
	}
	if regen.Action != "regenerate" || !regen.Success || regen.GameState.Generation != 2 {
		t.Errorf("Expected regeneration, got %+v", regen)
	}

	if _, err := svc.HandleKey(ctx, "nope", "r"); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc, _, info := newTestService(t)

	for i := 0; i < 25; i++ {
		svc.Move(ctx, info.ID, "up", false)
	}

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantLen   int
		wantFirst int
		wantNext  bool
	}{
		{"defaults", service.HistoryOptions{}, 20, 25, true},
		{"second page desc", service.HistoryOptions{Page: 2, Limit: 20}, 5, 5, false},
		{"ascending", service.HistoryOptions{Limit: 10, Order: "asc"}, 10, 1, true},
		{"past the end", service.HistoryOptions{Page: 5, Limit: 10, Order: "asc"}, 0, 0, false},
		{"limit capped", service.HistoryOptions{Limit: 1000}, 25, 25, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, err := svc.GetMoveHistory(ctx, info.ID, tt.opts)
			if err != nil {
				t.Fatalf("GetMoveHistory failed: %v", err)
			}
			if len(history.Moves) != tt.wantLen {
				t.Fatalf("Expected %d moves, got %d", tt.wantLen, len(history.Moves))
			}
			if tt.wantLen > 0 && history.Moves[0].MoveNumber != tt.wantFirst {
				t.Errorf("Expected first move number %d, got %d", tt.wantFirst, history.Moves[0].MoveNumber)
			}
			if history.HasNext != tt.wantNext {
				t.Errorf("Expected HasNext=%v, got %v", tt.wantNext, history.HasNext)
			}
			if history.TotalMoves != 25 {
				t.Errorf("Expected 25 total moves, got %d", history.TotalMoves)
			}
		})
	}
}

func TestGameService_ListAndDeleteSessions(t *testing.T) {
	ctx := context.Background()
	svc, _, info := newTestService(t)
	svc.CreateSession(ctx, "")

	list, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(list))
	}
	for _, s := range list {
		if s.ConfigName != "test" && s.ConfigName != "default" {
			t.Errorf("Expected config id, got %q", s.ConfigName)
		}
	}

	if err := svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, info.ID); err == nil {
		t.Error("Expected deleted session to be gone")
	}
}

func TestGameService_Reset(t *testing.T) {
	ctx := context.Background()
	svc, _, info := newTestService(t)

	moves := solution(t, info.GameState)
	svc.Move(ctx, info.ID, moves[0], false)

	state, err := svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if state.Player != engine.StartPosition || state.CurrentMovesCount != 0 {
		t.Errorf("Expected reset to start, got %+v", state.Player)
	}
	if state.TotalMoves != 1 {
		t.Errorf("Expected cumulative total to survive reset, got %d", state.TotalMoves)
	}

	if _, err := svc.Reset(ctx, "nope"); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestGameService_Regenerate(t *testing.T) {
	ctx := context.Background()
	svc, _, info := newTestService(t)

	state, err := svc.Regenerate(ctx, info.ID)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	if state.Generation != 2 || state.Message != "New maze!" {
		t.Errorf("Expected generation 2 with regenerated message, got %d %q", state.Generation, state.Message)
	}
	if err := engine.VerifyPerfect(state.Grid); err != nil {
		t.Errorf("Expected a perfect maze: %v", err)
	}
}

func TestGameService_Hint(t *testing.T) {
	ctx := context.Background()
	svc, _, info := newTestService(t)

	hint, err := svc.Hint(ctx, info.ID)
	if err != nil {
		t.Fatalf("Hint failed: %v", err)
	}
	moves := solution(t, info.GameState)
	if !hint.Available || hint.Direction != moves[0] {
		t.Errorf("Expected hint %q, got %+v", moves[0], hint)
	}
	if hint.DistanceToGoal != len(moves) {
		t.Errorf("Expected distance %d, got %d", len(moves), hint.DistanceToGoal)
	}

	svc.BulkMove(ctx, info.ID, moves, false)
	hint, _ = svc.Hint(ctx, info.ID)
	if hint.Available {
		t.Error("Expected no hint after winning")
	}
}

func TestGameService_Render(t *testing.T) {
	ctx := context.Background()
	svc, _, info := newTestService(t)

	render, err := svc.Render(ctx, info.ID)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(render.Lines) != 9 || render.Rows != 9 || render.Cols != 9 {
		t.Fatalf("Expected 9x9 render, got %d lines", len(render.Lines))
	}
	if render.Lines[1][1] != '@' {
		t.Errorf("Expected player glyph at (1,1), got %q", render.Lines[1][1])
	}
	if render.Lines[7][7] != 'G' {
		t.Errorf("Expected goal glyph at (7,7), got %q", render.Lines[7][7])
	}
	if render.Legend != service.RenderLegend {
		t.Errorf("Unexpected legend %q", render.Legend)
	}
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	configs, err := svc.ListConfigs(ctx)
	if err != nil || len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d (%v)", len(configs), err)
	}

	custom := testConfig()
	custom.Name = "custom"
	if err := svc.SaveConfig(ctx, "custom", custom); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := svc.LoadConfig(ctx, "custom")
	if err != nil || loaded.Name != "custom" {
		t.Errorf("Expected to load saved config, got %+v (%v)", loaded, err)
	}
}

func TestGameService_ReloadConfigs(t *testing.T) {
	ctx := context.Background()
	configs := NewMockConfigManager()
	svc := service.NewGameService(NewMockSessionManager(), configs)

	if err := svc.ReloadConfigs(ctx, ""); err != nil {
		t.Fatalf("ReloadConfigs(all) failed: %v", err)
	}
	if err := svc.ReloadConfigs(ctx, "test"); err != nil {
		t.Fatalf("ReloadConfigs(test) failed: %v", err)
	}
	if err := svc.ReloadConfigs(ctx, "missing"); !errors.Is(err, service.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
	if len(configs.reloads) != 2 || configs.reloads[0] != "*" || configs.reloads[1] != "test" {
		t.Errorf("Unexpected reloads %v", configs.reloads)
	}
}

func TestGameService_UnknownSessionMatchesSentinel(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetGameState(context.Background(), "nobody")
	if !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

// Moves and state reads run side by side the way HTTP, MCP and websocket
// handlers do; run with -race.
func TestGameService_ConcurrentMovesAndReads(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(session.NewManager(), NewMockConfigManager())
	info, err := svc.CreateSession(ctx, "test")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	const rounds = 200
	directions := []string{"up", "down", "left", "right"}
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if _, err := svc.Move(ctx, info.ID, directions[i%len(directions)], false); err != nil {
				t.Errorf("Move failed: %v", err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			state, err := svc.GetGameState(ctx, info.ID)
			if err != nil {
				t.Errorf("GetGameState failed: %v", err)
				return
			}
			if _, err := json.Marshal(state); err != nil {
				t.Errorf("Marshal failed: %v", err)
				return
			}
			if _, err := svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{}); err != nil {
				t.Errorf("GetMoveHistory failed: %v", err)
				return
			}
		}
	}()

	wg.Wait()

	state, err := svc.GetGameState(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetGameState failed: %v", err)
	}
	if state.TotalMoves != rounds || len(state.MoveHistory) != rounds {
		t.Errorf("Expected %d recorded moves, got %d (%d in history)", rounds, state.TotalMoves, len(state.MoveHistory))
	}
}
