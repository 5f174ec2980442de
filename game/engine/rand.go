package engine

import (
	"math/rand/v2"
	"time"
)

// RandSource is the only randomness the engine consumes.
// *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	// IntN returns a uniform int in [0, n). n must be > 0.
	IntN(n int) int
}

// NewSeededSource returns a deterministic source for the given seed
func NewSeededSource(seed int64) RandSource {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// newClockSource seeds a source from the wall clock; used to pick fresh maze seeds
func newClockSource() RandSource {
	return NewSeededSource(time.Now().UnixNano())
}

// nextSeed draws a positive seed from src
func nextSeed(src RandSource) int64 {
	return int64(src.IntN(1<<31-1)) + 1
}

// shuffleDirections performs an in-place Fisher-Yates shuffle
func shuffleDirections(dirs []Direction, rng RandSource) {
	for i := len(dirs) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
}
