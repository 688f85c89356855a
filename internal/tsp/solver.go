package tsp

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Algorithm names a search strategy.
type Algorithm string

const (
	// AlgorithmBruteforce enumerates every permutation.
	AlgorithmBruteforce Algorithm = "bruteforce"
	// AlgorithmHillClimbing runs stochastic local search.
	AlgorithmHillClimbing Algorithm = "hill-climbing"
)

// ParseAlgorithm converts a command line name into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case AlgorithmBruteforce, AlgorithmHillClimbing:
		return a, nil
	default:
		return "", wrapErrorf(ErrUnknownAlgorithm, "%q", s).WithOperation("parse_algorithm")
	}
}

// Result is the outcome of a search.
type Result struct {
	Algorithm Algorithm
	// Tour is the best tour found and Fitness its length.
	Tour    Tour
	Fitness float64
	// Initial is the nearest-neighbor tour the search started from.
	Initial        Tour
	InitialFitness float64
	// Iterations and Accepted count steps run and moves taken by hill climbing.
	Iterations int
	Accepted   int
	// History lists every improvement of the best-known tour.
	History  []Improvement
	Duration time.Duration
}

// Options configures Solve.
type Options struct {
	Algorithm Algorithm
	Search    SearchConfig
	// MaxExactCities bounds bruteforce instances; zero means unbounded.
	MaxExactCities int
	Logger         *zap.Logger
}

// Solve runs the selected algorithm on d.
func Solve(ctx context.Context, d *Distances, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	began := time.Now()

	var (
		result *Result
		err    error
	)
	switch opts.Algorithm {
	case AlgorithmHillClimbing:
		var h *HillClimber
		if h, err = NewHillClimber(opts.Search, logger); err != nil {
			return nil, err
		}
		result, err = h.Run(ctx, d)
	case AlgorithmBruteforce:
		result, err = solveExact(ctx, d, opts)
	default:
		return nil, wrapErrorf(ErrUnknownAlgorithm, "%q", opts.Algorithm).WithOperation("solve")
	}
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(began)
	logger.Info("search finished",
		zap.String("algorithm", string(opts.Algorithm)),
		zap.Int("cities", d.N()),
		zap.Float64("fitness", result.Fitness),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func solveExact(ctx context.Context, d *Distances, opts Options) (*Result, error) {
	if opts.MaxExactCities > 0 && d.N() > opts.MaxExactCities {
		return nil, wrapErrorf(ErrTooManyCities, "%d cities, limit %d", d.N(), opts.MaxExactCities).
			WithOperation("solve").WithComponent("exact")
	}

	initial, err := NearestNeighbor(d, NewRand(opts.Search.Seed))
	if err != nil {
		return nil, err
	}
	tour, fitness, err := Bruteforce(ctx, d)
	if err != nil {
		return nil, err
	}
	return &Result{
		Algorithm:      AlgorithmBruteforce,
		Tour:           tour,
		Fitness:        fitness,
		Initial:        initial,
		InitialFitness: Fitness(initial, d),
	}, nil
}
