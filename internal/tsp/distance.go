// Package tsp computes short closed tours over a set of cities, either by
// exhaustive search or by stochastic hill climbing over segment reversals.
//
// Cities are the integer ids 0..N-1 of a Distances matrix; names are an
// input/output concern and never reach this package.
package tsp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// symTol is the tolerance used for the symmetry and diagonal checks.
const symTol = 1e-9

// Distances is an immutable N×N matrix of pairwise travel costs.
// It is safe for concurrent reads.
type Distances struct {
	n int
	m *mat.Dense
}

// NewDistances builds a distance model from rows of equal length.
// Every entry must be finite and non-negative. Symmetry and a zero
// diagonal are not required here; see CheckMetric.
func NewDistances(rows [][]float64) (*Distances, error) {
	n := len(rows)
	if n == 0 {
		return nil, &Error{Op: "new_distances", Component: "distance", Err: ErrEmptyMatrix}
	}

	data := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, wrapErrorf(ErrNonSquare, "row %d has %d entries, want %d", i, len(row), n).
				WithOperation("new_distances").WithComponent("distance")
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, wrapErrorf(ErrNonFinite, "d(%d,%d)=%v", i, j, v).
					WithOperation("new_distances").WithComponent("distance")
			}
			if v < 0 {
				return nil, wrapErrorf(ErrNegativeDistance, "d(%d,%d)=%v", i, j, v).
					WithOperation("new_distances").WithComponent("distance")
			}
			data = append(data, v)
		}
	}

	return &Distances{n: n, m: mat.NewDense(n, n, data)}, nil
}

// CheckMetric verifies the zero diagonal and symmetry that the search
// assumes by convention.
func (d *Distances) CheckMetric() error {
	for i := 0; i < d.n; i++ {
		if math.Abs(d.m.At(i, i)) > symTol {
			return wrapErrorf(ErrNonZeroDiagonal, "d(%d,%d)=%v", i, i, d.m.At(i, i)).
				WithOperation("check_metric").WithComponent("distance")
		}
		for j := i + 1; j < d.n; j++ {
			if math.Abs(d.m.At(i, j)-d.m.At(j, i)) > symTol {
				return wrapErrorf(ErrAsymmetric, "d(%d,%d)=%v, d(%d,%d)=%v", i, j, d.m.At(i, j), j, i, d.m.At(j, i)).
					WithOperation("check_metric").WithComponent("distance")
			}
		}
	}
	return nil
}

// N returns the number of cities.
func (d *Distances) N() int {
	return d.n
}

// At returns the cost of travelling directly from city i to city j.
func (d *Distances) At(i, j int) float64 {
	return d.m.At(i, j)
}

// Matrix returns a copy of the underlying matrix.
func (d *Distances) Matrix() *mat.Dense {
	return mat.DenseCopyOf(d.m)
}

// Rows returns the matrix as freshly allocated rows.
func (d *Distances) Rows() [][]float64 {
	rows := make([][]float64, d.n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, d.m)
	}
	return rows
}
