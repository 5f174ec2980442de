package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/mazegame/game/engine"
	"github.com/wricardo/mcp-training/mazegame/game/service"
)

const gameInstructions = `Maze Game - Complete Instructions

OBJECTIVE:
Walk the player (@) from the start at row 1, col 1 to the goal (G).

GRID LEGEND:
  #  wall, impassable
  .  path
  G  goal
  @  you

COORDINATES:
Positions are (row, col), 0-based. Row grows downward, col grows to the right.
The outer border is always wall. Cells with both row and col even are always wall.

MOVEMENT COMMANDS:
  up     row - 1
  down   row + 1
  left   col - 1
  right  col + 1
A blocked move leaves you in place and is still counted.

RULES:
- Every maze is perfect: one and only one path joins any two open cells.
- Once you reach G the maze is won and further moves are rejected.
- regenerate carves a new maze; reset_game returns you to the start of the same maze.

STRATEGY:
1. Read the drawing from game_state row by row; use describe_cell when unsure.
2. Follow one wall (keep your right hand on it). In a perfect maze this always
   reaches the goal.
3. Dead ends are normal: back out to the last junction and take the next branch.
4. Use bulk_move for long corridors; it stops at the first wall, so check
   stop_reason_code and the position it reports.
5. hint gives the first step of the shortest path when you are lost.

Good luck!`

func formatSessionInfo(info *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		info.ID, info.ConfigName, info.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(info.GameState))
}

func formatSessionList(count int, sessions []service.SessionInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Active Sessions (%d):\n\n", count)
	for _, s := range sessions {
		status := "playing"
		if s.GameState != nil && s.GameState.Won {
			status = "won"
		}
		fmt.Fprintf(&sb, "- %s (Config: %s, %s, Created: %s)\n",
			s.ID, s.ConfigName, status, s.CreatedAt.Format("15:04:05"))
	}
	return sb.String()
}

// formatGameState draws the maze and summarizes the player's situation
func formatGameState(state *engine.PlayState) string {
	if state == nil {
		return "No game state available"
	}

	var sb strings.Builder
	if state.Won {
		sb.WriteString("🎉 GOAL REACHED!\n")
	}
	fmt.Fprintf(&sb, "Maze: %dx%d (generation %d, seed %d)\n", state.Rows, state.Cols, state.Generation, state.Seed)
	fmt.Fprintf(&sb, "Position: (%d,%d)\n", state.Player.Row, state.Player.Col)
	fmt.Fprintf(&sb, "Goal: (%d,%d)\n", state.Goal.Row, state.Goal.Col)
	if !state.Won {
		fmt.Fprintf(&sb, "Distance to goal: %d\n", state.Distance)
	}
	fmt.Fprintf(&sb, "Moves this maze: %d (total %d)\n", state.CurrentMovesCount, state.TotalMoves)
	if state.Message != "" {
		fmt.Fprintf(&sb, "Message: %s\n", state.Message)
	}

	if len(state.Grid) > 0 {
		sb.WriteString("\n")
		for _, line := range engine.Render(state.GameState) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Possible moves: %s\n", strings.Join(possibleMoves(state), ", "))
	}

	return sb.String()
}

// possibleMoves lists the directions leading to open cells
func possibleMoves(state *engine.PlayState) []string {
	var moves []string
	for _, dir := range engine.AllDirections {
		dRow, dCol := dir.Delta()
		target := state.Player.Add(dRow, dCol)
		if state.CanMoveTo(target.Row, target.Col) {
			moves = append(moves, string(dir))
		}
	}
	if len(moves) == 0 {
		return []string{"none"}
	}
	return moves
}

func formatLocal3x3(view []string) string {
	if len(view) == 0 {
		return ""
	}
	return "Around you:\n  " + strings.Join(view, "\n  ") + "\n"
}

func formatMoveResult(result *service.MoveResult) string {
	var sb strings.Builder
	if result.Success {
		sb.WriteString("✓ Move successful\n")
	} else {
		sb.WriteString("✗ Move failed\n")
	}
	if result.Message != "" {
		fmt.Fprintf(&sb, "%s\n", result.Message)
	}

	if result.Step != nil {
		fmt.Fprintf(&sb, "Step: %s (%d,%d) -> (%d,%d) [%s]\n", result.Step.Dir,
			result.Step.From.Row, result.Step.From.Col, result.Step.To.Row, result.Step.To.Col, result.Step.TileType)
	}
	if result.AttemptedTo != nil {
		fmt.Fprintf(&sb, "Blocked by %s at (%d,%d)\n", result.AttemptedTo.TileType, result.AttemptedTo.Row, result.AttemptedTo.Col)
	}

	if state := result.GameState; state != nil {
		fmt.Fprintf(&sb, "Position: (%d,%d)\n", state.Player.Row, state.Player.Col)
		if state.Won {
			sb.WriteString("🎉 GOAL REACHED!\n")
		} else {
			fmt.Fprintf(&sb, "Distance to goal: %d\n", state.Distance)
			fmt.Fprintf(&sb, "Possible moves: %s\n", strings.Join(possibleMoves(state), ", "))
		}
		sb.WriteString(formatLocal3x3(state.LocalView3x3))
	}

	return sb.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Bulk move for session %s: executed %d of %d\n", sessionID, result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&sb, "⚠️ Only the first %d moves were applied\n", result.Limit)
	}
	if result.StopReasonCode != "" {
		fmt.Fprintf(&sb, "Stopped on move %d: %s (%s)\n", result.StoppedOnMove, result.StoppedReason, result.StopReasonCode)
	}
	if result.AttemptedTo != nil {
		fmt.Fprintf(&sb, "Blocked by %s at (%d,%d)\n", result.AttemptedTo.TileType, result.AttemptedTo.Row, result.AttemptedTo.Col)
	}
	fmt.Fprintf(&sb, "Start: (%d,%d)  End: (%d,%d)\n", result.StartPos.Row, result.StartPos.Col, result.EndPos.Row, result.EndPos.Col)

	for _, step := range result.Steps {
		mark := "✓"
		if !step.Success {
			mark = "✗"
		}
		fmt.Fprintf(&sb, "  %2d. %s %-5s (%d,%d) -> (%d,%d)\n", step.Idx, mark, step.Dir, step.From.Row, step.From.Col, step.To.Row, step.To.Col)
	}

	if result.Won {
		sb.WriteString("🎉 GOAL REACHED!\n")
	} else {
		fmt.Fprintf(&sb, "Distance to goal: %d\n", result.DistanceToGoal)
		if len(result.PossibleMoves) > 0 {
			fmt.Fprintf(&sb, "Possible moves: %s\n", strings.Join(result.PossibleMoves, ", "))
		}
	}
	sb.WriteString(formatLocal3x3(result.LocalView3x3))
	if result.Message != "" {
		fmt.Fprintf(&sb, "Message: %s\n", result.Message)
	}

	return sb.String()
}

func formatHint(hint *service.HintResult) string {
	if !hint.Available {
		return hint.Message
	}
	return fmt.Sprintf("Go %s from (%d,%d). %d steps to the goal.\n%s",
		hint.Direction, hint.Position.Row, hint.Position.Col, hint.DistanceToGoal, hint.Message)
}

func formatHistory(history *service.HistoryResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Move History (page %d of %d, %d moves total):\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		sb.WriteString(formatHistoryEntry(m))
	}
	if history.HasNext {
		sb.WriteString("More moves on the next page.\n")
	}
	return sb.String()
}

func formatHistoryEntry(m engine.MoveHistoryEntry) string {
	mark := "✓"
	if !m.Success {
		mark = "✗"
	}
	return fmt.Sprintf("  #%d %s %-5s (%d,%d) -> (%d,%d) gen %d\n", m.MoveNumber, mark, m.Action,
		m.FromPosition.Row, m.FromPosition.Col, m.ToPosition.Row, m.ToPosition.Col, m.Generation)
}

// formatCurrentSegment lists the moves made on the current maze only
func formatCurrentSegment(state *engine.PlayState) string {
	if state == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current maze (generation %d): %d moves\n", state.Generation, state.CurrentMovesCount)
	for _, m := range state.CurrentMoves {
		sb.WriteString(formatHistoryEntry(m))
	}
	return sb.String()
}

func formatConfigs(configs []service.ConfigInfo) string {
	var sb strings.Builder
	sb.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&sb, "• %s (config_id: %s)\n  %s\n  Maze: %dx%d", cfg.Name, cfg.ConfigID, cfg.Description, cfg.Rows, cfg.Cols)
		if cfg.Seed != 0 {
			fmt.Fprintf(&sb, ", fixed seed %d", cfg.Seed)
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func describeCell(state *engine.PlayState, pos engine.Position) string {
	cell := state.Grid.At(pos)

	var char, description string
	passable := cell != engine.Wall
	switch cell {
	case engine.Wall:
		char, description = "#", "Wall - IMPASSABLE"
	case engine.Goal:
		char, description = "G", "The goal - reach it to win"
	default:
		char, description = ".", "Open path"
	}
	if pos == state.Player {
		char = "@"
		description = "Your current position"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Cell at (row %d, col %d):\n", pos.Row, pos.Col)
	fmt.Fprintf(&sb, "Character: %s\nType: %s\nPassable: %v\nDescription: %s\n", char, cell, passable, description)

	if passable && pos != state.Player {
		if dist := engine.ManhattanDistance(state.Player, pos); dist == 1 {
			dir, _ := engine.DirectionBetween(state.Player, pos)
			fmt.Fprintf(&sb, "Adjacent: move %s to step here.\n", dir)
		}
	}
	return sb.String()
}
