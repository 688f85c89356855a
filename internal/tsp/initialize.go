package tsp

import (
	"math"
	"math/rand"
)

// NearestNeighbor builds a starting tour greedily: it begins at a uniformly
// random city and keeps moving to the closest unvisited one. Ties go to the
// lowest city id.
func NearestNeighbor(d *Distances, rng *rand.Rand) (Tour, error) {
	n := d.N()
	if n == 0 {
		return nil, &Error{Op: "nearest_neighbor", Component: "initializer", Err: ErrInstanceTooSmall}
	}

	visited := make([]bool, n)
	tour := make(Tour, 1, n)
	tour[0] = rng.Intn(n)
	visited[tour[0]] = true

	for len(tour) < n {
		current := tour[len(tour)-1]
		nearest := -1
		nearestDist := math.Inf(1)
		for city := 0; city < n; city++ {
			if !visited[city] && d.At(current, city) < nearestDist {
				nearest = city
				nearestDist = d.At(current, city)
			}
		}
		tour = append(tour, nearest)
		visited[nearest] = true
	}

	return tour, nil
}
