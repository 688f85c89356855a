package tsp

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Policy selects which neighbor of the current tour is proposed each step.
type Policy int

const (
	// PolicySimple proposes the fittest tour of the sample.
	PolicySimple Policy = iota
	// PolicyRandom proposes a uniformly chosen tour of the sample.
	PolicyRandom
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicySimple:
		return "simple"
	case PolicyRandom:
		return "random"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts "simple" or "random" into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simple", "":
		return PolicySimple, nil
	case "random":
		return PolicyRandom, nil
	default:
		return 0, wrapErrorf(ErrUnknownPolicy, "%q", s).WithOperation("parse_policy")
	}
}

// SearchConfig configures a hill-climbing run.
type SearchConfig struct {
	// Iterations is the fixed step budget.
	Iterations int
	// Policy is the neighbor-selection policy.
	Policy Policy
	// Steepest resets the current tour to the best-known one after an
	// accepted move that does not beat it.
	Steepest bool
	// SampleSize is the number of neighbors drawn per step.
	SampleSize int
	// Seed for the random source; zero seeds from the clock.
	Seed int64
}

// DefaultSearchConfig returns the defaults of the command line tool.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Iterations: 1000,
		Policy:     PolicySimple,
		Steepest:   true,
		SampleSize: DefaultSampleSize,
	}
}

// Improvement records a step at which the best-known tour got shorter.
type Improvement struct {
	Iteration int     `json:"iteration"`
	Fitness   float64 `json:"fitness"`
}

// HillClimber runs first-improvement local search over segment reversals.
// A HillClimber owns its random source and must not run concurrently.
type HillClimber struct {
	config SearchConfig
	rng    *rand.Rand
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewHillClimber validates config, fills zero values with defaults and
// seeds the random source. A nil logger disables logging.
func NewHillClimber(config SearchConfig, logger *zap.Logger) (*HillClimber, error) {
	if config.Policy != PolicySimple && config.Policy != PolicyRandom {
		return nil, wrapErrorf(ErrUnknownPolicy, "%v", config.Policy).
			WithOperation("new_hill_climber").WithComponent("local_search")
	}
	if config.Iterations < 1 {
		config.Iterations = DefaultSearchConfig().Iterations
	}
	if config.SampleSize < 1 {
		config.SampleSize = DefaultSampleSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HillClimber{
		config: config,
		rng:    NewRand(config.Seed),
		logger: logger.Named("hill_climbing"),
	}, nil
}

// Config returns the effective configuration.
func (h *HillClimber) Config() SearchConfig {
	return h.config
}

// Run builds a nearest-neighbor tour and climbs from it.
func (h *HillClimber) Run(ctx context.Context, d *Distances) (*Result, error) {
	start, err := NearestNeighbor(d, h.rng)
	if err != nil {
		return nil, err
	}
	return h.Climb(ctx, d, start)
}

// Climb runs the configured number of steps starting from start and
// returns the best tour seen. Instances below MinNeighborCities have no
// usable neighborhood and are solved exactly instead.
func (h *HillClimber) Climb(ctx context.Context, d *Distances, start Tour) (*Result, error) {
	if err := start.Validate(d.N()); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()
	defer cancel()

	x := start.Clone()
	fx := Fitness(x, d)
	result := &Result{
		Algorithm:      AlgorithmHillClimbing,
		Initial:        start.Clone(),
		InitialFitness: fx,
	}

	if d.N() < MinNeighborCities {
		tour, fitness, err := Bruteforce(ctx, d)
		if err != nil {
			return nil, err
		}
		result.Tour, result.Fitness = tour, fitness
		h.logger.Debug("instance below neighborhood size, solved exactly", zap.Int("cities", d.N()))
		return result, nil
	}

	best, fbest := x, fx
	progressEvery := h.config.Iterations / 10
	if progressEvery < 1 {
		progressEvery = 1
	}

	for i := 0; i < h.config.Iterations; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		y, fy, err := h.propose(x, d)
		if err != nil {
			return nil, err
		}

		if fy < fx {
			x, fx = y, fy
			result.Accepted++
			if fx < fbest {
				best, fbest = x, fx
				result.History = append(result.History, Improvement{Iteration: i, Fitness: fbest})
			} else if h.config.Steepest {
				x, fx = best, fbest
			}
		}
		result.Iterations++

		if (i+1)%progressEvery == 0 {
			h.logger.Debug("progress",
				zap.Int("iteration", i+1),
				zap.Int("of", h.config.Iterations),
				zap.Float64("best_fitness", fbest),
			)
		}
	}

	result.Tour, result.Fitness = best.Clone(), fbest
	return result, nil
}

// Stop cancels a Climb in progress.
func (h *HillClimber) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
	}
}

// propose draws a neighbor sample of x and picks one according to the policy.
func (h *HillClimber) propose(x Tour, d *Distances) (Tour, float64, error) {
	neighbors, err := Neighbors(x, h.config.SampleSize, h.rng)
	if err != nil {
		return nil, 0, err
	}

	switch h.config.Policy {
	case PolicyRandom:
		y := neighbors[h.rng.Intn(len(neighbors))]
		return y, Fitness(y, d), nil
	default:
		best := neighbors[0]
		fbest := Fitness(best, d)
		for _, y := range neighbors[1:] {
			if f := Fitness(y, d); f < fbest {
				best, fbest = y, f
			}
		}
		return best, fbest, nil
	}
}
