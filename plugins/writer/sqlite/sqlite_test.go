package sqlite

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

func histograms() []contract.Histogram {
	return []contract.Histogram{{Name: "dsigmadpT", Bins: []contract.Bin{
		{Low: 0, High: 1, Skipped: true},
		{Low: 1, High: 2, Value: 0.5, Error: 0.1, Accepted: 40, Samples: 50},
	}}}
}

func TestRunsAccumulate(t *testing.T) {
	ctx := context.Background()
	w, err := New(&Options{Dir: t.TempDir(), Name: "runs"})
	require.NoError(t, err)

	require.NoError(t, w.WriteHistograms(ctx, contract.RunInfo{ID: "first", PDFSet: "test-set", Seed: 1}, histograms()))
	require.NoError(t, w.WriteHistograms(ctx, contract.RunInfo{PDFSet: "test-set", Seed: 2}, histograms()))

	db, err := w.Open(ctx)
	require.NoError(t, err)
	defer db.Close()

	var runs int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&runs))
	assert.Equal(t, 2, runs)

	var generated string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT id FROM runs WHERE seed = 2`).Scan(&generated))
	_, err = uuid.Parse(generated)
	assert.NoError(t, err)

	var value float64
	var accepted, skipped int64
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT value, accepted, skipped FROM bins WHERE run_id = 'first' AND idx = 1`).Scan(&value, &accepted, &skipped))
	assert.InDelta(t, 0.5, value, 1e-12)
	assert.Equal(t, int64(40), accepted)
	assert.Equal(t, int64(0), skipped)

	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT skipped FROM bins WHERE run_id = 'first' AND idx = 0`).Scan(&skipped))
	assert.Equal(t, int64(1), skipped)
}

func TestDuplicateRunRollsBack(t *testing.T) {
	ctx := context.Background()
	w, err := New(&Options{Dir: t.TempDir(), Name: "runs"})
	require.NoError(t, err)
	run := contract.RunInfo{ID: "dup"}
	require.NoError(t, w.WriteHistograms(ctx, run, histograms()))
	assert.Error(t, w.WriteHistograms(ctx, run, histograms()))

	db, err := w.Open(ctx)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bins`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSeedOutOfRangeRejected(t *testing.T) {
	ctx := context.Background()
	w, err := New(&Options{Dir: t.TempDir(), Name: "runs"})
	require.NoError(t, err)
	err = w.WriteHistograms(ctx, contract.RunInfo{ID: "big", Seed: math.MaxInt64 + 1}, histograms())
	assert.ErrorIs(t, err, contract.ErrInvalidInput)

	require.NoError(t, w.WriteHistograms(ctx, contract.RunInfo{ID: "max", Seed: math.MaxInt64}, histograms()))
	db, err := w.Open(ctx)
	require.NoError(t, err)
	defer db.Close()
	var seed int64
	require.NoError(t, db.QueryRowContext(ctx, `SELECT seed FROM runs WHERE id = 'max'`).Scan(&seed))
	assert.Equal(t, int64(math.MaxInt64), seed)
}
