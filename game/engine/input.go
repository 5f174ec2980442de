package engine

import (
	"fmt"
	"strings"
)

// ActionKind distinguishes what a key press asks the engine to do
type ActionKind int

const (
	ActionMove ActionKind = iota + 1
	ActionRegenerate
)

// Action is a decoded key press
type Action struct {
	Kind      ActionKind
	Direction Direction
}

// keyBindings maps lower-cased key names to actions.
// Browser KeyboardEvent.key names, ebiten key names, WASD, vi keys and plain words are all accepted.
var keyBindings = map[string]Action{
	"arrowup":    {Kind: ActionMove, Direction: Up},
	"arrowdown":  {Kind: ActionMove, Direction: Down},
	"arrowleft":  {Kind: ActionMove, Direction: Left},
	"arrowright": {Kind: ActionMove, Direction: Right},
	"up":         {Kind: ActionMove, Direction: Up},
	"down":       {Kind: ActionMove, Direction: Down},
	"left":       {Kind: ActionMove, Direction: Left},
	"right":      {Kind: ActionMove, Direction: Right},
	"w":          {Kind: ActionMove, Direction: Up},
	"s":          {Kind: ActionMove, Direction: Down},
	"a":          {Kind: ActionMove, Direction: Left},
	"d":          {Kind: ActionMove, Direction: Right},
	"k":          {Kind: ActionMove, Direction: Up},
	"j":          {Kind: ActionMove, Direction: Down},
	"h":          {Kind: ActionMove, Direction: Left},
	"l":          {Kind: ActionMove, Direction: Right},
	"r":          {Kind: ActionRegenerate},
	"regenerate": {Kind: ActionRegenerate},
}

// ParseKey decodes a key name from a host UI
func ParseKey(key string) (Action, error) {
	action, ok := keyBindings[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return action, nil
}
