// Package session keeps maze sessions alive between requests.
//
// Manager holds sessions in memory under lowercase ids, so "AB12" and "ab12"
// name the same session. Ids left empty on Create get four random hex
// characters.
//
// Storage:
//
// A Manager may be given a SessionPersistence. Every created or touched
// session is written through to it, and Get falls back to it for sessions
// not in memory. Two stores are provided:
//
//   - FilePersistence writes one JSON file per session into a directory.
//   - RedisPersistence writes one JSON string per session under
//     "mazegame:session:<id>" with a TTL, taking a redsync lock per key.
//
// Both store the full play state (grid, seed, generation, history) plus a
// snapshot of the maze config, so a session survives its preset being
// removed.
//
// Cleanup:
//
// CleanupExpiredSessions evicts idle sessions from memory only. SyncWithStore
// evicts sessions whose stored copy was deleted elsewhere.
package session
