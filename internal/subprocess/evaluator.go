// Package subprocess evaluates partonic leading-order differential cross
// sections dσ/dΩ for every incoming flavour pair.
package subprocess

import (
	"fmt"
	"math"

	"github.com/Sergeyir/HardProcessesLO/internal/kinematics"
	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

// Evaluator computes dσ/dΩ in the partonic centre-of-mass frame.
// The coupling is taken from the PDF set at Q^2 = p_T^2.
type Evaluator struct {
	PDF contract.PDF
	// NF: open final-state quark flavours; 0 means contract.NumLightFlavors.
	NF int
}

// NewEvaluator returns an Evaluator over pdf with n_f = 5.
func NewEvaluator(pdf contract.PDF) *Evaluator {
	return &Evaluator{PDF: pdf, NF: contract.NumLightFlavors}
}

func (e *Evaluator) nf() int {
	if e.NF <= 0 {
		return contract.NumLightFlavors
	}
	return e.NF
}

// DSigmaDOmega returns dσ/dΩ for a+b -> 2 partons at transverse momentum pT,
// partonic energy squared sHat and rapidity difference dy = y1-y2.
func (e *Evaluator) DSigmaDOmega(a, b contract.Flavor, pT, sHat, dy float64) (float64, error) {
	if !(pT > 0) || !(sHat > 0) || math.IsNaN(dy) {
		return 0, fmt.Errorf("%w: dσ/dΩ at pT=%g sHat=%g dy=%g", contract.ErrInvalidInput, pT, sHat, dy)
	}
	as := e.PDF.AlphasQ2(pT * pT)
	return e.DSigmaDOmegaAt(a, b, kinematics.Invariants(sHat, dy), as)
}

// DSigmaDOmegaAt is DSigmaDOmega with precomputed invariants and coupling;
// the flavour sum uses it to avoid recomputing both per channel.
func (e *Evaluator) DSigmaDOmegaAt(a, b contract.Flavor, m kinematics.Mandelstam, alphaS float64) (float64, error) {
	ch := Classify(a, b)
	if ch == Unknown {
		return 0, fmt.Errorf("%w: %v %v", contract.ErrUnknownChannel, a, b)
	}
	return alphaS * alphaS / (4 * m.S) * MatrixElement(ch, m, e.nf()), nil
}
