package engine

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownDirection = errors.New("unknown direction")
	ErrUnknownKey       = errors.New("unknown key")
)

// ConfigError reports maze dimensions that cannot be carved.
// It is returned before any grid is allocated.
type ConfigError struct {
	Rows   int
	Cols   int
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid maze size %dx%d: %s", e.Rows, e.Cols, e.Reason)
}

// InvariantViolation signals a carving defect, e.g. no path cell left to hold the goal.
// Callers should treat it as a bug, not as a recoverable condition.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return "maze invariant violated: " + e.Reason
}
