// Package flavorsum folds the partonic cross sections with the parton
// densities of both hadrons over every incoming flavour pair.
package flavorsum

import (
	"fmt"
	"math"

	"github.com/Sergeyir/HardProcessesLO/internal/kinematics"
	"github.com/Sergeyir/HardProcessesLO/internal/subprocess"
	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

// GeV2ToPb converts GeV^-2 to picobarn.
const GeV2ToPb = 0.389379e9

const nFlavors = 2*contract.NumLightFlavors + 1

// Aggregator is safe for concurrent use when its PDF is.
type Aggregator struct {
	PDF  contract.PDF
	Eval *subprocess.Evaluator
}

// New returns an Aggregator whose evaluator reads α_S from pdf.
func New(pdf contract.PDF) *Aggregator {
	return &Aggregator{PDF: pdf, Eval: subprocess.NewEvaluator(pdf)}
}

// flavors is the parton set, fixed once so the per-sample loops do not allocate.
var flavors = func() (out [nFlavors]contract.Flavor) {
	copy(out[:], contract.Flavors())
	return out
}()

// densities holds x*f(x, Q^2) for the flavour set, indexed by id+5.
type densities [nFlavors]float64

func (a *Aggregator) densities(x, q2 float64) densities {
	var d densities
	for _, f := range &flavors {
		d[int(f)+contract.NumLightFlavors] = a.PDF.XfxQ2(f.PDGID(), x, q2)
	}
	return d
}

// DSigmaDPTDY1DY2 returns d^3σ/dp_T dy1 dy2 at one phase-space point: the sum
// over all ordered flavour pairs of 8π p_T x1f(a) x2f(b) dσ/dΩ(a,b) / ŝ, with
// densities and coupling evaluated at Q^2 = p_T^2.
func (a *Aggregator) DSigmaDPTDY1DY2(pT, sHat, y1, y2, x1, x2 float64) (float64, error) {
	if !(pT > 0) || !(sHat > 0) || math.IsNaN(y1) || math.IsNaN(y2) {
		return 0, fmt.Errorf("%w: flavour sum at pT=%g sHat=%g", contract.ErrInvalidInput, pT, sHat)
	}
	q2 := pT * pT
	f1 := a.densities(x1, q2)
	f2 := a.densities(x2, q2)
	m := kinematics.Invariants(sHat, y1-y2)
	as := a.PDF.AlphasQ2(q2)

	var sum float64
	for _, fa := range &flavors {
		xa := f1[int(fa)+contract.NumLightFlavors]
		if xa == 0 {
			continue
		}
		for _, fb := range &flavors {
			xb := f2[int(fb)+contract.NumLightFlavors]
			if xb == 0 {
				continue
			}
			ds, err := a.Eval.DSigmaDOmegaAt(fa, fb, m, as)
			if err != nil {
				return 0, err
			}
			sum += xa * xb * ds
		}
	}
	return 8 * math.Pi * pT * sum / sHat, nil
}

// ByChannel splits DSigmaDPTDY1DY2 into its channel classes.
func (a *Aggregator) ByChannel(pT, sHat, y1, y2, x1, x2 float64) (map[subprocess.Channel]float64, error) {
	if !(pT > 0) || !(sHat > 0) {
		return nil, fmt.Errorf("%w: flavour sum at pT=%g sHat=%g", contract.ErrInvalidInput, pT, sHat)
	}
	q2 := pT * pT
	f1 := a.densities(x1, q2)
	f2 := a.densities(x2, q2)
	m := kinematics.Invariants(sHat, y1-y2)
	as := a.PDF.AlphasQ2(q2)
	norm := 8 * math.Pi * pT / sHat

	out := make(map[subprocess.Channel]float64)
	for _, fa := range &flavors {
		for _, fb := range &flavors {
			ds, err := a.Eval.DSigmaDOmegaAt(fa, fb, m, as)
			if err != nil {
				return nil, err
			}
			out[subprocess.Classify(fa, fb)] += norm * f1[int(fa)+contract.NumLightFlavors] * f2[int(fb)+contract.NumLightFlavors] * ds
		}
	}
	return out, nil
}
