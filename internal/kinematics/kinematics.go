// Package kinematics maps sampled parton rapidities onto leading-order 2->2
// kinematics: momentum fractions, partonic invariants and the scattering angle.
//
// All functions are massless and pure.
package kinematics

import "math"

// X1 is the momentum fraction of the parton from the first hadron.
func X1(pT, sqrtS, y1, y2 float64) float64 {
	return 2 * pT / sqrtS * math.Exp((y1+y2)/2) * math.Cosh((y1-y2)/2)
}

// X2 is the momentum fraction of the parton from the second hadron.
func X2(pT, sqrtS, y1, y2 float64) float64 {
	return 2 * pT / sqrtS * math.Exp(-(y1+y2)/2) * math.Cosh((y1-y2)/2)
}

// Admissible reports whether x lies in (0, 1].
func Admissible(x float64) bool { return x > 0 && x <= 1 }

// SHat is the partonic centre-of-mass energy squared.
func SHat(sqrtS, x1, x2 float64) float64 { return sqrtS * sqrtS * x1 * x2 }

// CosTheta is cos(theta*) of the outgoing parton at y1 in the partonic frame.
func CosTheta(dy float64) float64 { return math.Tanh(dy / 2) }

// Mandelstam holds the partonic invariants; s+t+u = 0.
type Mandelstam struct {
	S, T, U float64
}

// Invariants derives t and u from s and the rapidity difference dy = y1-y2.
// t is measured between the parton of the first hadron and the outgoing parton at y1.
func Invariants(sHat, dy float64) Mandelstam {
	c := CosTheta(dy)
	return Mandelstam{
		S: sHat,
		T: -sHat * (1 - c) / 2,
		U: -sHat * (1 + c) / 2,
	}
}

// Swap exchanges t and u (the two outgoing partons trade places).
func (m Mandelstam) Swap() Mandelstam { return Mandelstam{S: m.S, T: m.U, U: m.T} }

// PT2 returns t*u/s, the squared transverse momentum of the final state.
func (m Mandelstam) PT2() float64 { return m.T * m.U / m.S }

// MaxPT is the largest p_T reachable at rapidity difference dy for a centred
// system (x1 = x2 = 1 boundary).
func MaxPT(sqrtS, dy float64) float64 { return sqrtS / (2 * math.Cosh(dy/2)) }
