package tsp

import (
	"math/rand"
)

const (
	// DefaultSampleSize is the number of neighbors drawn per step when the
	// caller does not choose one.
	DefaultSampleSize = 20

	// MinNeighborCities is the smallest instance neighbor sampling supports.
	MinNeighborCities = 4
)

// MaxNeighbors returns how many distinct tours one segment reversal can
// reach from a tour of n cities: one per span [i, j) with j-i >= 2.
func MaxNeighbors(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// Neighbors draws up to size distinct tours, each obtained from t by
// reversing one contiguous span of at least two cities. The sample is
// clamped to MaxNeighbors(len(t)) so that drawing always terminates.
// Candidates are returned in the order they were first drawn.
func Neighbors(t Tour, size int, rng *rand.Rand) ([]Tour, error) {
	n := len(t)
	if n < MinNeighborCities {
		return nil, wrapErrorf(ErrInstanceTooSmall, "%d cities, need at least %d", n, MinNeighborCities).
			WithOperation("neighbors").WithComponent("neighborhood")
	}
	if size <= 0 {
		size = DefaultSampleSize
	}
	if limit := MaxNeighbors(n); size > limit {
		size = limit
	}

	neighbors := make([]Tour, 0, size)
	seen := make(map[string]struct{}, size)
	for len(neighbors) < size {
		i, j := drawSpan(n, rng)
		candidate := t.reversed(i, j)
		key := candidate.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		neighbors = append(neighbors, candidate)
	}

	return neighbors, nil
}

// drawSpan picks two cut points in 0..n, orders them, and redraws until
// the half-open span between them holds at least two cities.
func drawSpan(n int, rng *rand.Rand) (int, int) {
	for {
		i := rng.Intn(n + 1)
		j := rng.Intn(n + 1)
		if i > j {
			i, j = j, i
		}
		if j-i >= 2 {
			return i, j
		}
	}
}
