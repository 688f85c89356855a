package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/tourclimb/internal/tsp"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Started(tsp.AlgorithmHillClimbing)
	m.Completed(&tsp.Result{
		Algorithm:  tsp.AlgorithmHillClimbing,
		Fitness:    42,
		Iterations: 1000,
		Accepted:   17,
		Duration:   25 * time.Millisecond,
	})
	m.Started(tsp.AlgorithmBruteforce)
	m.Finished(tsp.AlgorithmBruteforce, "cancelled")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsStarted.WithLabelValues("hill-climbing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsFinished.WithLabelValues("hill-climbing", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsFinished.WithLabelValues("bruteforce", "cancelled")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.BestFitness.WithLabelValues("hill-climbing")))
	assert.Equal(t, 1000.0, testutil.ToFloat64(m.Iterations))
	assert.Equal(t, 17.0, testutil.ToFloat64(m.Accepted))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)
}

func TestNewWithoutRegistry(t *testing.T) {
	m := New(nil)
	m.Started(tsp.AlgorithmBruteforce)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsStarted.WithLabelValues("bruteforce")))
}
