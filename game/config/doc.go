// Package config provides maze preset management.
//
// Presets are JSON files in the configs directory. Each one names a maze
// size (odd rows and cols between 5 and 101), an optional fixed seed and
// the messages shown to the player:
//
//	{
//	  "name": "easy",
//	  "description": "A small 11x11 maze",
//	  "rows": 11,
//	  "cols": 11,
//	  "messages": {"welcome": "...", "blocked": "...", "victory": "Solved in %d moves"}
//	}
//
// A preset with "seed" set reproduces the same maze on every generation.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	mazeConfig, err := manager.LoadConfig("easy")
//	defaultConfig := manager.GetDefault()
//	presets, err := manager.ListConfigs()
//
// The default preset is classic.json when present, otherwise the first
// valid preset, otherwise a built-in 21x21 maze.
package config
