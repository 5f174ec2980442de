// Package service provides the business logic layer for the maze game.
//
// The service package implements:
//   - Multi-session game management
//   - Move, bulk move and key forwarding for host UIs
//   - Reset, regeneration and hints
//   - Move history pagination and text rendering
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages maze preset loading and validation.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the engine. Each session owns its own engine instance; every mutating call
// is serialized by the service and the session is saved afterwards.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "easy")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.HandleKey(ctx, info.ID, "ArrowRight")
//
// Winning:
//
// Once the player reaches the goal the session ignores moves until it is
// regenerated, either with Regenerate, the "r" key, or the regenerate flag
// on Move and BulkMove.
package service
