// Command validate checks the maze preset JSON files in a configs directory.
// It checks:
//   - JSON structure and required fields
//   - Maze dimensions (odd, within limits) and a non-negative seed
//   - Message keys, including the %d placeholder in the victory message
//   - Generation: sample mazes are perfect and the goal is reachable from the start
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/mazegame/game/engine"
)

var errInvalidConfigs = errors.New("some configurations are invalid")

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file, then generates
// samples mazes from it and checks each one.
func validateConfig(filePath string, samples int) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var cfg engine.MazeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateMazeConfig(&cfg); err != nil {
		result.fail("%v", err)
	}

	if !result.Valid {
		return result
	}

	generation := validateGeneration(&cfg, samples)
	if !generation.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, generation.Errors...)
		return result
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", cfg.Name),
		fmt.Sprintf("✓ Maze: %dx%d", cfg.Rows, cfg.Cols),
	)
	if cfg.Seed != 0 {
		result.Info = append(result.Info, fmt.Sprintf("✓ Seed: %d (pinned)", cfg.Seed))
	}
	result.Info = append(result.Info, generation.Info...)

	return result
}

// validateGeneration carves sample mazes for the preset and checks that each
// is perfect and solvable from the start position.
func validateGeneration(cfg *engine.MazeConfig, samples int) ValidationResult {
	result := ValidationResult{Valid: true}

	seeds := make([]int64, 0, samples)
	if cfg.Seed != 0 {
		seeds = append(seeds, cfg.Seed)
	} else {
		for i := 1; i <= max(samples, 1); i++ {
			seeds = append(seeds, int64(i))
		}
	}

	shortest, longest := -1, 0
	for _, seed := range seeds {
		state, err := engine.Generate(cfg.Rows, cfg.Cols, engine.NewSeededSource(seed))
		if err != nil {
			result.fail("Seed %d: generation failed: %v", seed, err)
			continue
		}
		if err := engine.VerifyPerfect(state.Grid); err != nil {
			result.fail("Seed %d: %v", seed, err)
			continue
		}
		path, ok := engine.Solve(state.Grid, engine.StartPosition)
		if !ok {
			result.fail("Seed %d: goal unreachable from start", seed)
			continue
		}

		moves := len(path) - 1
		if shortest < 0 || moves < shortest {
			shortest = moves
		}
		longest = max(longest, moves)
	}

	if result.Valid {
		result.Info = append(result.Info,
			fmt.Sprintf("✓ Generation: %d sample(s) perfect and solvable", len(seeds)),
			fmt.Sprintf("✓ Solution length: %d-%d moves", shortest, longest),
		)
	}
	return result
}

// report prints one result and returns whether it was valid
func report(w io.Writer, result ValidationResult) bool {
	fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

	if result.Valid {
		fmt.Fprintln(w, "✅ VALID")
	} else {
		fmt.Fprintln(w, "❌ INVALID")
		for _, err := range result.Errors {
			fmt.Fprintln(w, "  ❌ "+err)
		}
	}
	for _, info := range result.Info {
		fmt.Fprintln(w, "  "+info)
	}
	return result.Valid
}

func newCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate maze preset files",
		ArgsUsage: "[preset.json ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "../configs",
				Usage:   "directory scanned when no files are given",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.IntFlag{
				Name:  "samples",
				Value: 3,
				Usage: "mazes generated per unpinned preset",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				found, err := filepath.Glob(filepath.Join(cmd.String("config-dir"), "*.json"))
				if err != nil {
					return fmt.Errorf("finding config files: %w", err)
				}
				files = found
			}
			if len(files) == 0 {
				return fmt.Errorf("no config files found")
			}

			allValid := true
			for _, file := range files {
				if !report(w, validateConfig(file, cmd.Int("samples"))) {
					allValid = false
				}
			}

			fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
			if !allValid {
				fmt.Fprintln(w, "❌ Some configurations have errors")
				return errInvalidConfigs
			}
			fmt.Fprintln(w, "✅ All configurations are valid!")
			return nil
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, errInvalidConfigs) {
			os.Exit(1)
		}
		logrus.WithError(err).Fatal("validate failed")
	}
}
