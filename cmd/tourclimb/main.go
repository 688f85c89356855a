// Command tourclimb solves a travelling salesman instance read from a CSV
// or Excel distance matrix and prints the initial and best tours.
//
//	tourclimb [flags] <matrix-file> <bruteforce|hill-climbing>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/copyleftdev/tourclimb/internal/config"
	"github.com/copyleftdev/tourclimb/internal/logging"
	"github.com/copyleftdev/tourclimb/internal/matrixio"
	"github.com/copyleftdev/tourclimb/internal/report"
	"github.com/copyleftdev/tourclimb/internal/store"
	"github.com/copyleftdev/tourclimb/internal/tsp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "tourclimb: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("tourclimb", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: tourclimb [flags] <matrix-file> <bruteforce|hill-climbing>\n")
		fs.PrintDefaults()
	}
	iterations := fs.Int("iterations", cfg.Search.Iterations, "hill-climbing iterations")
	policy := fs.String("policy", cfg.Search.Policy, "neighbor selection policy: simple or random")
	steepest := fs.Bool("steepest", cfg.Search.Steepest, "roll back to the best tour after a failed step")
	sample := fs.Int("sample", cfg.Search.SampleSize, "neighbors sampled per iteration")
	seed := fs.Int64("seed", cfg.Search.Seed, "random seed, 0 seeds from the clock")
	maxExact := fs.Int("max-exact", cfg.Search.MaxExactCities, "largest instance bruteforce accepts, 0 for no limit")
	record := fs.Bool("record", false, "persist the run into the run store")
	logLevel := fs.String("log-level", cfg.Logging.Level, "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("expected a matrix file and an algorithm, got %d arguments", fs.NArg())
	}

	algorithm, err := tsp.ParseAlgorithm(fs.Arg(1))
	if err != nil {
		return err
	}
	p, err := tsp.ParsePolicy(*policy)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  *logLevel,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return err
	}

	inst, err := matrixio.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	if cfg.Search.StrictMatrix {
		if err := inst.Distances.CheckMetric(); err != nil {
			return err
		}
	}

	search := tsp.SearchConfig{
		Iterations: *iterations,
		Policy:     p,
		Steepest:   *steepest,
		SampleSize: *sample,
		Seed:       *seed,
	}
	if search.Seed == 0 {
		// Pin the seed so the recorded run can be replayed.
		search.Seed = time.Now().UnixNano()
	}

	logger.Info("Solving", logging.Fields{
		"file":      fs.Arg(0),
		"algorithm": string(algorithm),
		"cities":    inst.Distances.N(),
		"seed":      search.Seed,
	})

	started := time.Now()
	res, err := tsp.Solve(ctx, inst.Distances, tsp.Options{
		Algorithm:      algorithm,
		Search:         search,
		MaxExactCities: *maxExact,
		Logger:         logging.NewZapLogger(logger),
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Initial tour:")
	if err := report.Write(stdout, report.Build(res.Initial, inst.Names, inst.Distances)); err != nil {
		return err
	}
	if algorithm == tsp.AlgorithmHillClimbing {
		fmt.Fprintln(stdout, "Best tour:")
	}
	if err := report.Write(stdout, report.Build(res.Tour, inst.Names, inst.Distances)); err != nil {
		return err
	}

	if !*record {
		return nil
	}
	return save(ctx, cfg, res, inst, search, started, logger)
}

func save(ctx context.Context, cfg *config.Config, res *tsp.Result, inst *matrixio.Instance, search tsp.SearchConfig, started time.Time, logger *logging.Logger) error {
	if !cfg.StoreEnabled() {
		return fmt.Errorf("-record needs DB_TYPE=sqlite and a DB_DSN")
	}
	st, err := store.New(cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer st.Close()

	conf, err := json.Marshal(map[string]interface{}{
		"iterations":  search.Iterations,
		"policy":      search.Policy.String(),
		"steepest":    search.Steepest,
		"sample_size": search.SampleSize,
		"seed":        search.Seed,
	})
	if err != nil {
		return err
	}

	run := &store.Run{
		ID:             "cli_" + strconv.FormatInt(started.UnixNano(), 36),
		Algorithm:      string(res.Algorithm),
		Status:         "completed",
		Cities:         inst.Distances.N(),
		Names:          inst.Names,
		Tour:           res.Tour,
		Fitness:        res.Fitness,
		InitialFitness: res.InitialFitness,
		Iterations:     res.Iterations,
		Accepted:       res.Accepted,
		Config:         conf,
		StartedAt:      started,
		FinishedAt:     started.Add(res.Duration),
	}
	if err := st.Save(ctx, run); err != nil {
		return err
	}
	logger.Info("Run recorded", logging.Fields{"run_id": run.ID, "dsn": cfg.Database.DSN})
	return nil
}
