package tsp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxNeighbors(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 0}, {1, 0}, {2, 1}, {4, 6}, {7, 21}, {10, 45},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaxNeighbors(tt.n), "n=%d", tt.n)
	}
}

func TestNeighbors(t *testing.T) {
	tests := []struct {
		name   string
		cities int
		size   int
		want   int
	}{
		{name: "default sample", cities: 12, size: 0, want: DefaultSampleSize},
		{name: "requested sample", cities: 12, size: 30, want: 30},
		{name: "clamped to reachable moves", cities: 4, size: 20, want: 6},
		{name: "exactly every move", cities: 7, size: 21, want: 21},
		{name: "five cities", cities: 5, size: 20, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			tour := make(Tour, tt.cities)
			for i := range tour {
				tour[i] = i
			}
			rng.Shuffle(len(tour), func(i, j int) { tour[i], tour[j] = tour[j], tour[i] })
			original := tour.Clone()

			neighbors, err := Neighbors(tour, tt.size, rng)
			require.NoError(t, err)
			require.Len(t, neighbors, tt.want)
			assert.Equal(t, original, tour, "input tour must not be modified")

			seen := make(map[string]bool, len(neighbors))
			for _, nb := range neighbors {
				requirePermutation(t, nb, tt.cities)
				assert.False(t, seen[nb.String()], "duplicate neighbor %v", nb)
				seen[nb.String()] = true
				assertSingleReversal(t, tour, nb)
			}
		})
	}
}

func TestNeighborsTooSmall(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < MinNeighborCities; n++ {
		tour := make(Tour, n)
		for i := range tour {
			tour[i] = i
		}
		_, err := Neighbors(tour, 20, rng)
		assert.ErrorIs(t, err, ErrInstanceTooSmall, "n=%d", n)
	}
}

func TestDrawSpan(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		lo, hi := drawSpan(4, rng)
		assert.GreaterOrEqual(t, lo, 0)
		assert.LessOrEqual(t, hi, 4)
		assert.GreaterOrEqual(t, hi-lo, 2)
	}
}

// assertSingleReversal checks that got equals want with exactly one
// contiguous span reversed.
func assertSingleReversal(t *testing.T, want, got Tour) {
	t.Helper()
	first, last := -1, -1
	for i := range want {
		if want[i] != got[i] {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	require.GreaterOrEqual(t, first, 0, "neighbor %v equals its source", got)
	assert.Equal(t, want.reversed(first, last+1), got)
}
