// Package histo converts result histograms into go-hep hbook histograms,
// the in-memory form shared by the ROOT, YODA and plot writers.
package histo

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

// uniform reports whether all bins share one width (relative tolerance 1e-9).
func uniform(bins []contract.Bin) bool {
	w := bins[0].Width()
	for _, b := range bins[1:] {
		if math.Abs(b.Width()-w) > 1e-9*math.Abs(w) {
			return false
		}
	}
	return true
}

// ToH1D stores each bin's value as its sum of weights and error^2 as the sum
// of squared weights, so that hbook reports Value and Error unchanged.
// Entries are the accepted sample counts.
func ToH1D(h contract.Histogram) (*hbook.H1D, error) {
	if len(h.Bins) == 0 {
		return nil, fmt.Errorf("%w: histogram %q has no bins", contract.ErrInvalidInput, h.Name)
	}
	for i := 1; i < len(h.Bins); i++ {
		if math.Abs(h.Bins[i].Low-h.Bins[i-1].High) > 1e-9*math.Max(1, math.Abs(h.Bins[i].Low)) {
			return nil, fmt.Errorf("%w: histogram %q bins not contiguous at %d", contract.ErrInvalidInput, h.Name, i)
		}
	}
	var out *hbook.H1D
	if uniform(h.Bins) {
		out = hbook.NewH1D(len(h.Bins), h.XMin(), h.XMax())
	} else {
		edges := make([]float64, 0, len(h.Bins)+1)
		for _, b := range h.Bins {
			edges = append(edges, b.Low)
		}
		edges = append(edges, h.XMax())
		out = hbook.NewH1DFromEdges(edges)
	}
	out.Ann["name"] = h.Name
	if h.Title != "" {
		out.Ann["title"] = h.Title
	}

	tot := &out.Binning.Dist
	for i, b := range h.Bins {
		d := &out.Binning.Bins[i].Dist
		x := b.Center()
		d.Dist.N = b.Accepted
		d.Dist.SumW = b.Value
		d.Dist.SumW2 = b.Error * b.Error
		d.Stats.SumWX = b.Value * x
		d.Stats.SumWX2 = b.Value * x * x

		tot.Dist.N += d.Dist.N
		tot.Dist.SumW += d.Dist.SumW
		tot.Dist.SumW2 += d.Dist.SumW2
		tot.Stats.SumWX += d.Stats.SumWX
		tot.Stats.SumWX2 += d.Stats.SumWX2
	}
	return out, nil
}

// FromH1D is the inverse of ToH1D for value, error and entries.
func FromH1D(name string, h *hbook.H1D) contract.Histogram {
	out := contract.Histogram{Name: name}
	if t, ok := h.Ann["title"].(string); ok {
		out.Title = t
	}
	for i, b := range h.Binning.Bins {
		out.Bins = append(out.Bins, contract.Bin{
			Low:      b.Range.Min,
			High:     b.Range.Max,
			Value:    h.Value(i),
			Error:    h.Error(i),
			Accepted: b.Dist.Entries(),
		})
	}
	return out
}
