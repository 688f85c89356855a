package tsp

import (
	"math/rand"
	"time"
)

// NewRand returns the random source threaded through a search.
// A zero seed draws one from the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
