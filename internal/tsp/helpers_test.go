package tsp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// chainRows is the four-city instance whose optimal cycle 0-1-2-3-0 has length 12.
var chainRows = [][]float64{
	{0, 1, 9, 9},
	{1, 0, 1, 9},
	{9, 1, 0, 1},
	{9, 9, 1, 0},
}

// mustDistances builds a distance model or fails the test.
func mustDistances(t *testing.T, rows [][]float64) *Distances {
	t.Helper()
	d, err := NewDistances(rows)
	require.NoError(t, err)
	return d
}

// randomSymmetric generates an n-city symmetric instance with integer
// distances in [1, 100] so that tour lengths are exact in float64.
func randomSymmetric(t *testing.T, n int, seed int64) *Distances {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := float64(1 + rng.Intn(100))
			rows[i][j], rows[j][i] = v, v
		}
	}
	return mustDistances(t, rows)
}

// requirePermutation asserts that tour visits every city of an n-city instance once.
func requirePermutation(t *testing.T, tour Tour, n int) {
	t.Helper()
	require.NoError(t, tour.Validate(n), "tour %v", tour)
}
