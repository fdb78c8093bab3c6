package yoda

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/yodacnv"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

func TestWriteTwoHistograms(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{Dir: dir, Name: "analytic"})
	require.NoError(t, err)
	hs := []contract.Histogram{
		{Name: "dsigmadpT", Bins: []contract.Bin{{Low: 0, High: 1, Value: 3, Error: 1}, {Low: 1, High: 2, Value: 1, Error: 0.5}}},
		{Name: "dsigmaddeltay", Bins: []contract.Bin{{Low: -1, High: 1, Value: 7, Error: 2}}},
	}
	require.NoError(t, w.WriteHistograms(context.Background(), contract.RunInfo{}, hs))

	f, err := os.Open(filepath.Join(dir, "analytic.yoda"))
	require.NoError(t, err)
	defer f.Close()
	objs, err := yodacnv.Read(f)
	require.NoError(t, err)
	require.Len(t, objs, 2)

	h, ok := objs[0].(*hbook.H1D)
	require.True(t, ok, "got %T", objs[0])
	assert.Equal(t, 2, h.Len())
	assert.InDelta(t, 3, h.Value(0), 1e-9)
	assert.InDelta(t, 0.5, h.Error(1), 1e-9)
}

func TestRejectsEmptyHistogram(t *testing.T) {
	w, err := New(&Options{Dir: t.TempDir(), Name: "x"})
	require.NoError(t, err)
	err = w.WriteHistograms(context.Background(), contract.RunInfo{}, []contract.Histogram{{Name: "e"}})
	assert.ErrorIs(t, err, contract.ErrInvalidInput)
}
