package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/tourclimb/internal/tsp"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "data/tourclimb.db", cfg.Database.DSN)
	assert.True(t, cfg.StoreEnabled())
	assert.Equal(t, 10, cfg.Search.MaxExactCities)
	assert.True(t, cfg.Search.StrictMatrix)

	search, err := cfg.SearchConfig()
	require.NoError(t, err)
	assert.Equal(t, tsp.SearchConfig{
		Iterations: 1000,
		Policy:     tsp.PolicySimple,
		Steepest:   true,
		SampleSize: 20,
	}, search)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SEARCH_POLICY", "random")
	t.Setenv("SEARCH_STEEPEST", "false")
	t.Setenv("SEARCH_ITERATIONS", "50")
	t.Setenv("SEARCH_SEED", "9")
	t.Setenv("SEARCH_WORKERS", "0")
	t.Setenv("DB_TYPE", "none")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.StoreEnabled())
	assert.Equal(t, 1, cfg.Search.Workers)

	search, err := cfg.SearchConfig()
	require.NoError(t, err)
	assert.Equal(t, tsp.PolicyRandom, search.Policy)
	assert.False(t, search.Steepest)
	assert.Equal(t, 50, search.Iterations)
	assert.Equal(t, int64(9), search.Seed)
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	t.Setenv("SEARCH_POLICY", "annealing")
	_, err := Load()
	assert.ErrorIs(t, err, tsp.ErrUnknownPolicy)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TOURCLIMB_TEST_KEY", "value")
	assert.Equal(t, "value", GetEnv("TOURCLIMB_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("TOURCLIMB_TEST_MISSING", "fallback"))
}
