package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MazeConfig is a named maze preset loaded from JSON
type MazeConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	// Seed pins every generation to the same maze when non-zero
	Seed     int64        `json:"seed,omitempty"`
	Messages MazeMessages `json:"messages"`
}

// MazeMessages are the texts shown to the player after each action
type MazeMessages struct {
	Welcome     string `json:"welcome"`
	Moved       string `json:"moved"`
	Blocked     string `json:"blocked"`
	Victory     string `json:"victory"`
	AlreadyWon  string `json:"already_won"`
	Regenerated string `json:"regenerated"`
}

// DefaultMazeConfig returns the built-in preset used when no config file is available
func DefaultMazeConfig() *MazeConfig {
	return &MazeConfig{
		Name:        "default",
		Description: "Built-in 21x21 maze",
		Rows:        21,
		Cols:        21,
		Messages: MazeMessages{
			Welcome:     "Find your way from the top-left corner to the goal!",
			Moved:       "Moved.",
			Blocked:     "A wall blocks the way.",
			Victory:     "You reached the goal in %d moves!",
			AlreadyWon:  "You already won. Press R for a new maze.",
			Regenerated: "A new maze has been generated.",
		},
	}
}

// ValidateMazeConfig validates a maze preset for correctness
func ValidateMazeConfig(config *MazeConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if err := ValidateDimensions(config.Rows, config.Cols); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if config.Rows > MaxMazeSize || config.Cols > MaxMazeSize {
		return fmt.Errorf("config validation: %w", &ConfigError{
			Rows:   config.Rows,
			Cols:   config.Cols,
			Reason: fmt.Sprintf("rows and cols must be at most %d", MaxMazeSize),
		})
	}
	if config.Seed < 0 {
		return fmt.Errorf("config validation: seed must not be negative, got %d", config.Seed)
	}

	required := []struct {
		key   string
		value string
	}{
		{"welcome", config.Messages.Welcome},
		{"moved", config.Messages.Moved},
		{"blocked", config.Messages.Blocked},
		{"victory", config.Messages.Victory},
		{"already_won", config.Messages.AlreadyWon},
		{"regenerated", config.Messages.Regenerated},
	}
	for _, msg := range required {
		if msg.value == "" {
			return fmt.Errorf("config validation: messages.%s is required", msg.key)
		}
	}
	if !strings.Contains(config.Messages.Victory, "%d") {
		return fmt.Errorf("config validation: messages.victory must contain %%d for move count")
	}

	return nil
}

// LoadMazeConfig loads a maze preset from a JSON file
func LoadMazeConfig(filename string) (*MazeConfig, error) {
	data, err := os.ReadFile(resolveConfigPath(filename))
	if err != nil {
		return nil, err
	}

	var config MazeConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateMazeConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// resolveConfigPath swaps the configs/ prefix for CONFIG_DIR when it is set
func resolveConfigPath(filename string) string {
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" || !strings.HasPrefix(filename, "configs/") {
		return filename
	}
	return filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
}
