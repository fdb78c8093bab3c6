package plot

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRendersOnePNGPerHistogram(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{Dir: dir, Name: "analytic"})
	require.NoError(t, err)
	hs := []contract.Histogram{
		{Name: "dsigmadpT", XLabel: "p_T [GeV]", Bins: []contract.Bin{{Low: 0, High: 1, Value: 2, Error: 0.2}, {Low: 1, High: 2, Value: 1, Error: 0.1}}},
		{Name: "dsigmaddeltay", Bins: []contract.Bin{{Low: -1, High: 0, Value: 1}, {Low: 0, High: 1, Value: 1}}},
	}
	run := contract.RunInfo{PDFSet: "test-set", SqrtS: 200}
	require.NoError(t, w.WriteHistograms(context.Background(), run, hs))

	for _, name := range []string{"analytic_dsigmadpT.png", "analytic_dsigmaddeltay.png"} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(b, pngMagic), name)
	}
}

func TestOptions(t *testing.T) {
	_, err := New(&Options{Dir: t.TempDir(), Name: "a", Width: -1})
	assert.ErrorIs(t, err, contract.ErrConfig)
	w, err := New(&Options{Dir: t.TempDir(), Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, contract.ArtifactID("a_h.png"), w.ID("h"))
}
