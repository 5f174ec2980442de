package session

import (
	"testing"

	"github.com/wricardo/mcp-training/mazegame/game/config"
	"github.com/wricardo/mcp-training/mazegame/game/engine"
)

func createTestConfig() *engine.MazeConfig {
	return &engine.MazeConfig{
		Name:        "tiny",
		Description: "Test configuration",
		Rows:        9,
		Cols:        9,
		Seed:        42,
		Messages: engine.MazeMessages{
			Welcome:     "Welcome!",
			Moved:       "Moved.",
			Blocked:     "Wall!",
			Victory:     "Done in %d moves!",
			AlreadyWon:  "Already won!",
			Regenerated: "Fresh maze!",
		},
	}
}

// newTestConfigManager returns a config manager over a temp dir holding the "tiny" preset
func newTestConfigManager(t *testing.T) *config.Manager {
	t.Helper()
	dir := t.TempDir()
	configManager, err := config.NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	if err := configManager.SaveConfig("tiny", createTestConfig()); err != nil {
		t.Fatalf("Failed to save test preset: %v", err)
	}
	return configManager
}

// firstOpenMove returns a direction the player can take from its current cell
func firstOpenMove(t *testing.T, eng *engine.GameEngine) string {
	t.Helper()
	moves := eng.GetPossibleMoves()
	if len(moves) == 0 {
		t.Fatal("Expected at least one possible move from start")
	}
	return moves[0]
}
