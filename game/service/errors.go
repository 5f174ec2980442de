package service

import "errors"

// Shared sentinels. The session and config packages re-export them so callers
// on either side of the service can match with errors.Is.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
)
