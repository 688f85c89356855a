package tsp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestNeighborProducesPermutation(t *testing.T) {
	for n := 1; n <= 12; n++ {
		d := randomSymmetric(t, n, int64(n))
		tour, err := NearestNeighbor(d, rand.New(rand.NewSource(int64(n))))
		require.NoError(t, err)
		requirePermutation(t, tour, n)
	}
}

func TestNearestNeighborFollowsClosestCity(t *testing.T) {
	d := mustDistances(t, chainRows)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		tour, err := NearestNeighbor(d, rng)
		require.NoError(t, err)
		for k := 1; k < len(tour); k++ {
			prev := tour[k-1]
			for city := 0; city < d.N(); city++ {
				if contains(tour[:k], city) {
					continue
				}
				assert.LessOrEqual(t, d.At(prev, tour[k]), d.At(prev, city),
					"step %d of %v skipped a closer city %d", k, tour, city)
			}
		}
	}
}

func TestNearestNeighborBreaksTiesByLowestID(t *testing.T) {
	// Every city is equally far from every other, so after the random
	// start the remaining cities must follow in ascending order.
	rows := [][]float64{
		{0, 5, 5, 5, 5},
		{5, 0, 5, 5, 5},
		{5, 5, 0, 5, 5},
		{5, 5, 5, 0, 5},
		{5, 5, 5, 5, 0},
	}
	d := mustDistances(t, rows)
	tour, err := NearestNeighbor(d, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	rest := make(Tour, 0, 4)
	for city := 0; city < 5; city++ {
		if city != tour[0] {
			rest = append(rest, city)
		}
	}
	assert.Equal(t, rest, tour[1:])
}

func TestNearestNeighborEmpty(t *testing.T) {
	_, err := NearestNeighbor(&Distances{}, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrInstanceTooSmall)
}

func contains(t Tour, city int) bool {
	for _, v := range t {
		if v == city {
			return true
		}
	}
	return false
}
