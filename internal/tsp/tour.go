package tsp

import (
	"strconv"
	"strings"
)

// Tour is a visiting order over city ids. The cycle is implicitly closed
// from the last city back to the first.
type Tour []int

// Fitness returns the total length of the closed cycle, including the edge
// from the last city back to the first. Lower is better.
func Fitness(t Tour, d *Distances) float64 {
	if len(t) == 0 {
		return 0
	}
	var total float64
	for i := 0; i < len(t)-1; i++ {
		total += d.At(t[i], t[i+1])
	}
	return total + d.At(t[len(t)-1], t[0])
}

// Validate checks that t is a permutation of 0..n-1.
func (t Tour) Validate(n int) error {
	if len(t) != n {
		return wrapErrorf(ErrInvalidTour, "length %d, want %d", len(t), n).WithOperation("validate_tour")
	}
	seen := make([]bool, n)
	for i, v := range t {
		if v < 0 || v >= n {
			return wrapErrorf(ErrInvalidTour, "position %d holds out-of-range city %d", i, v).WithOperation("validate_tour")
		}
		if seen[v] {
			return wrapErrorf(ErrInvalidTour, "city %d visited twice", v).WithOperation("validate_tour")
		}
		seen[v] = true
	}
	return nil
}

// Clone returns an independent copy of t.
func (t Tour) Clone() Tour {
	if t == nil {
		return nil
	}
	return append(Tour(nil), t...)
}

// Equal reports whether t and o list the same cities in the same order.
func (t Tour) Equal(o Tour) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders the tour as "0-1-2-3".
func (t Tour) String() string {
	var b strings.Builder
	for i, v := range t {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

// reversed returns a copy of t with the half-open span [i, j) reversed.
func (t Tour) reversed(i, j int) Tour {
	out := t.Clone()
	for lo, hi := i, j-1; lo < hi; lo, hi = lo+1, hi-1 {
		out[lo], out[hi] = out[hi], out[lo]
	}
	return out
}
