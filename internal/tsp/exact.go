package tsp

import (
	"context"
	"math"
)

// cancelCheckInterval is how many permutations are evaluated between
// context checks in Bruteforce.
const cancelCheckInterval = 1 << 12

// Bruteforce evaluates every permutation of 0..N-1 in lexicographic order
// and returns the first one with the lowest fitness. Its cost grows as N!;
// callers are responsible for bounding N.
func Bruteforce(ctx context.Context, d *Distances) (Tour, float64, error) {
	n := d.N()
	if n == 0 {
		return nil, 0, &Error{Op: "bruteforce", Component: "exact", Err: ErrInstanceTooSmall}
	}

	perm := make(Tour, n)
	for i := range perm {
		perm[i] = i
	}

	var best Tour
	bestFitness := math.Inf(1)
	for count := 0; ; count++ {
		if count%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}
		if f := Fitness(perm, d); f < bestFitness {
			bestFitness = f
			best = perm.Clone()
		}
		if !nextPermutation(perm) {
			break
		}
	}

	return best, bestFitness, nil
}

// nextPermutation rearranges p into its lexicographic successor and
// reports false once p is the last permutation.
func nextPermutation(p []int) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]
	for lo, hi := i+1, len(p)-1; lo < hi; lo, hi = lo+1, hi-1 {
		p[lo], p[hi] = p[hi], p[lo]
	}
	return true
}
