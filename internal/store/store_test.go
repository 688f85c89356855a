package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "runs", "test.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	run := &Run{
		ID:             "run_1",
		Algorithm:      "hill-climbing",
		Status:         "completed",
		Cities:         4,
		Names:          []string{"A", "B", "C", "D"},
		Tour:           []int{0, 1, 2, 3},
		Fitness:        12,
		InitialFitness: 20,
		Iterations:     1000,
		Accepted:       3,
		Config:         json.RawMessage(`{"policy":"simple"}`),
		StartedAt:      started,
		FinishedAt:     started.Add(time.Second),
	}
	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, "run_1")
	require.NoError(t, err)
	assert.Equal(t, run.Names, got.Names)
	assert.Equal(t, run.Tour, got.Tour)
	assert.Equal(t, 12.0, got.Fitness)
	assert.Equal(t, 20.0, got.InitialFitness)
	assert.Equal(t, 3, got.Accepted)
	assert.JSONEq(t, `{"policy":"simple"}`, string(got.Config))
	assert.True(t, started.Equal(got.StartedAt))
	assert.True(t, run.FinishedAt.Equal(got.FinishedAt))

	run.Status = "failed"
	run.Error = "boom"
	require.NoError(t, s.Save(ctx, run))
	got, err = s.Get(ctx, "run_1")
	require.NoError(t, err)
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, "boom", got.Error)
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Save(ctx, &Run{
			ID:        id,
			Algorithm: "bruteforce",
			Status:    "completed",
			Cities:    3,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Empty(t, runs[0].Tour)
	assert.True(t, runs[0].FinishedAt.IsZero())
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := New(path, 1)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), &Run{ID: "x", Algorithm: "bruteforce", Status: "completed", StartedAt: time.Now()}))
	require.NoError(t, s.Close())

	s, err = New(path, 1)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Get(context.Background(), "x")
	assert.NoError(t, err)
}

func TestFilePath(t *testing.T) {
	assert.Equal(t, "data/tourclimb.db", filePath("file:data/tourclimb.db?cache=shared"))
	assert.Equal(t, "", filePath("file::memory:?cache=shared"))
	assert.Equal(t, "/tmp/x.db", filePath("/tmp/x.db"))
}
