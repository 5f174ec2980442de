// Package mcp exposes the maze game to AI agents over the Model Context Protocol.
//
// The Client does not touch the game service directly. Every tool call is
// translated into a REST request against the api package, so the MCP server
// can run in-process (stdio mode) or point at a remote game server.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state: maze drawing, position, goal and possible moves
//   - move, bulk_move: single step or up to 200 steps, optionally regenerating first
//   - regenerate, reset_game
//   - hint: first step of the shortest path to the goal
//   - move_history: paginated history plus the moves made on the current maze
//   - list_configs, game_instructions
//   - describe_cell: type and passability of one cell
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
