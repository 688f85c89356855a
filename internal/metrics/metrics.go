// Package metrics exposes Prometheus collectors for solver runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/tourclimb/internal/tsp"
)

const namespace = "tourclimb"

// Metrics groups the collectors updated by the solver service.
type Metrics struct {
	RunsStarted  *prometheus.CounterVec
	RunsFinished *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
	BestFitness  *prometheus.GaugeVec
	Iterations   prometheus.Counter
	Accepted     prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Solver runs started, by algorithm.",
		}, []string{"algorithm"}),
		RunsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_finished_total",
			Help:      "Solver runs finished, by algorithm and final status.",
		}, []string{"algorithm", "status"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of completed solver runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"algorithm"}),
		BestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_best_fitness",
			Help:      "Fitness of the tour returned by the most recent completed run.",
		}, []string{"algorithm"}),
		Iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hill_climbing_iterations_total",
			Help:      "Hill-climbing steps executed.",
		}),
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hill_climbing_accepted_moves_total",
			Help:      "Hill-climbing moves accepted.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.RunsStarted, m.RunsFinished, m.RunDuration, m.BestFitness, m.Iterations, m.Accepted)
	}
	return m
}

// Started records the start of a run.
func (m *Metrics) Started(algorithm tsp.Algorithm) {
	m.RunsStarted.WithLabelValues(string(algorithm)).Inc()
}

// Completed records a successful run.
func (m *Metrics) Completed(res *tsp.Result) {
	alg := string(res.Algorithm)
	m.RunDuration.WithLabelValues(alg).Observe(res.Duration.Seconds())
	m.BestFitness.WithLabelValues(alg).Set(res.Fitness)
	m.Iterations.Add(float64(res.Iterations))
	m.Accepted.Add(float64(res.Accepted))
	m.RunsFinished.WithLabelValues(alg, "completed").Inc()
}

// Finished records a run that ended without a result.
func (m *Metrics) Finished(algorithm tsp.Algorithm, status string) {
	m.RunsFinished.WithLabelValues(string(algorithm), status).Inc()
}
