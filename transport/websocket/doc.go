// Package websocket pushes maze state to connected host UIs and accepts
// forwarded key presses.
//
// Clients connect to /ws?session=<id>. The Hub keeps clients grouped by
// session and every state change is sent as
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//
// A client may send {"key": "ArrowUp"}. The key is passed to the handler set
// with OnKey; the sender receives a "key_result" (or "error") event and every
// client of the session receives the new state.
//
// Usage:
//
//	hub := websocket.NewHub()
//	hub.OnKey(gameService.HandleKey)
//	go hub.Run()
package websocket
