package yaml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

func TestDocument(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{Dir: dir, Name: "run"})
	require.NoError(t, err)
	run := contract.RunInfo{
		ID: "abc", PDFSet: "test-set", SqrtS: 200, Samples: 1000, Seed: 7,
		ErrorModel: "legacy", Units: "gev",
		Started: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	h := contract.Histogram{Name: "dsigmadpT", Bins: []contract.Bin{
		{Low: 0, High: 2, Value: 1.5, Error: 0.1, Accepted: 900, Samples: 1000},
		{Low: 2, High: 4, Value: 0.5, Error: 0.05, Accepted: 800, Samples: 1000, Skipped: false},
	}}
	require.NoError(t, w.WriteHistograms(context.Background(), run, []contract.Histogram{h}))

	raw, err := os.ReadFile(filepath.Join(dir, "run.yaml"))
	require.NoError(t, err)
	var got Document
	require.NoError(t, yaml.Unmarshal(raw, &got))
	assert.Equal(t, run, got.Run)
	require.Len(t, got.Histograms, 1)
	assert.Equal(t, h, got.Histograms[0].Histogram)
	assert.InDelta(t, 2.0, got.Histograms[0].Integral, 1e-12)
	assert.InDelta(t, 4.0, got.Histograms[0].IntegralWidth, 1e-12)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, contract.ErrConfig)
}
