package root

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	rcnv "go-hep.org/x/hep/hbook/rootcnv"

	"github.com/Sergeyir/HardProcessesLO/internal/histo"
	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

func hist() contract.Histogram {
	return contract.Histogram{Name: "dsigmadpT", Title: "d#sigma/dp_{T}", Bins: []contract.Bin{
		{Low: 0, High: 1, Value: 4, Error: 0.5, Accepted: 10, Samples: 10},
		{Low: 1, High: 2, Value: 2, Error: 0.25, Accepted: 10, Samples: 10},
	}}
}

func TestWriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{Dir: dir, Name: "analytic"})
	require.NoError(t, err)
	require.NoError(t, w.WriteHistograms(context.Background(), contract.RunInfo{}, []contract.Histogram{hist()}))

	f, err := riofs.Open(filepath.Join(dir, "analytic.root"))
	require.NoError(t, err)
	defer f.Close()
	obj, err := f.Get("dsigmadpT")
	require.NoError(t, err)
	h, ok := obj.(rhist.H1)
	require.True(t, ok, "got %T", obj)
	back := histo.FromH1D("dsigmadpT", rcnv.H1D(h))
	require.Len(t, back.Bins, 2)
	assert.InDelta(t, 4, back.Bins[0].Value, 1e-12)
	assert.InDelta(t, 0.25, back.Bins[1].Error, 1e-12)
	assert.InDelta(t, 1, back.Bins[1].Low, 1e-12)
}

func TestNewRejectsEmptyName(t *testing.T) {
	_, err := New(&Options{Dir: t.TempDir()})
	assert.ErrorIs(t, err, contract.ErrConfig)
	_, err = New(&Options{Name: "x"})
	assert.ErrorIs(t, err, contract.ErrConfig)
}

func TestCancelled(t *testing.T) {
	w, err := New(&Options{Dir: t.TempDir(), Name: "a"})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = w.WriteHistograms(ctx, contract.RunInfo{}, []contract.Histogram{hist()})
	assert.ErrorIs(t, err, context.Canceled)
}
