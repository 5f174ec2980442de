// Package api exposes the maze service over HTTP.
//
// Endpoints (all JSON):
//
//	GET    /api/health
//	POST   /api/sessions                      {"config_id": "easy"}
//	GET    /api/sessions                      ?sort=created|accessed&order=asc|desc&limit=N
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	GET    /api/sessions/{id}/state
//	POST   /api/sessions/{id}/move            {"direction": "up", "regenerate": false}
//	POST   /api/sessions/{id}/bulk-move       {"moves": ["up", "right"], "regenerate": false}
//	POST   /api/sessions/{id}/key             {"key": "ArrowUp"}
//	POST   /api/sessions/{id}/reset
//	POST   /api/sessions/{id}/regenerate
//	GET    /api/sessions/{id}/hint
//	GET    /api/sessions/{id}/history         ?page=1&limit=20&order=desc
//	GET    /api/sessions/{id}/render          ?format=text
//	GET    /api/configs
//	POST   /api/configs
//	GET    /api/configs/{name}
//	POST   /api/configs/reload                re-read every preset from disk
//	POST   /api/configs/{name}/reload
//	GET    /ws?session={id}
//
// Every call that changes a session broadcasts the new state to the
// session's WebSocket clients. Victories and regenerations are also sent as
// "victory" and "regenerate" events.
//
// Errors are returned as {"error": "..."} with 404 for unknown sessions or
// presets, 400 for bad input and 500 otherwise.
package api
