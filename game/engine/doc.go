// Package engine provides the core game logic for the maze runner game.
//
// The engine package implements:
//   - Perfect maze generation with a randomized depth-first backtracker
//   - Pure, single-step movement with wall collision and goal detection
//   - Regeneration of a fresh maze after a win (or at any time)
//   - Key mapping for host UIs, solving and structural verification
//
// Core Types:
//
// GameState is the maze grid plus the player position and the won flag.
// Generate, AttemptMove and Regenerate operate on it without side effects;
// all randomness comes from an injected RandSource so a seed always
// reproduces the same maze.
//
// GameEngine wraps one session's PlayState (GameState plus seed, generation
// counter, messages and move history) behind the Engine interface.
// MazeConfig presets are loaded from JSON files.
//
// Usage:
//
//	state, err := engine.Generate(21, 21, engine.NewSeededSource(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	state = engine.AttemptMove(state, 0, 1)
//	if state.Won {
//		state, _ = engine.Regenerate(21, 21, rng)
//	}
//
// Maze Layout:
//
// Cells with both coordinates odd are rooms; cells between two rooms are
// passages. The border is always wall, the player starts at (1,1) and the
// goal is the bottom-right-most open cell.
package engine
