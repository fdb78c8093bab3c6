// Package toy is the Les Houches benchmark parametrisation of the proton
// at Q0^2 = 2 GeV^2, used without evolution. It needs no data files and
// backs the "test-set" and "lhtoy" set names.
package toy

import (
	"math"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

const (
	// MZ is the Z boson mass in GeV.
	MZ = 91.1876
	// DefaultAlphasMZ is α_S(M_Z^2) when Options leaves it unset.
	DefaultAlphasMZ = 0.118
	// q2Freeze: the coupling is frozen below this scale (GeV^2).
	q2Freeze = 1.0
)

type Options struct {
	// AlphasMZ: α_S at the Z mass; 0 means DefaultAlphasMZ.
	AlphasMZ float64 `json:"alphas_mz"`
	// Name is reported by SetName; defaults to "test-set".
	Name string `json:"name"`
}

// Set is immutable and safe for concurrent use.
type Set struct {
	name     string
	alphasMZ float64
}

func New(opts *Options) *Set {
	s := &Set{name: "test-set", alphasMZ: DefaultAlphasMZ}
	if opts != nil {
		if opts.AlphasMZ > 0 {
			s.alphasMZ = opts.AlphasMZ
		}
		if opts.Name != "" {
			s.name = opts.Name
		}
	}
	return s
}

func (s *Set) SetName() string { return s.name }

func (s *Set) Range() (xMin, xMax, q2Min, q2Max float64) { return 1e-9, 1, q2Freeze, 1e10 }

func valence(x, n, a, b float64) float64 { return n * math.Pow(x, a) * math.Pow(1-x, b) }

func dbar(x float64) float64 { return 0.1939875 * math.Pow(x, -0.1) * math.Pow(1-x, 6) }

func ubar(x float64) float64 { return (1 - x) * dbar(x) }

// XfxQ2 returns x*f(x); the parametrisation has no scale dependence.
func (s *Set) XfxQ2(pid int, x, _ float64) float64 {
	if !(x > 0) || x > 1 {
		return 0
	}
	switch pid {
	case contract.GluonPDGID, 0:
		return 1.7 * math.Pow(x, -0.1) * math.Pow(1-x, 5)
	case 1:
		return valence(x, 3.06432, 0.8, 4) + dbar(x)
	case 2:
		return valence(x, 5.1072, 0.8, 3) + ubar(x)
	case -1:
		return dbar(x)
	case -2:
		return ubar(x)
	case 3, -3:
		return 0.2 * (ubar(x) + dbar(x))
	default:
		// charm and bottom start at zero; anything else is not a parton
		return 0
	}
}

// AlphasQ2 runs α_S at one loop with five flavours from the Z mass.
func (s *Set) AlphasQ2(q2 float64) float64 {
	return OneLoopAlphas(s.alphasMZ, q2)
}

// OneLoopAlphas is α_S(Q^2) = α_S(M_Z^2) / (1 + α_S(M_Z^2) b0 ln(Q^2/M_Z^2)),
// b0 = (33-2nf)/(12π) with nf = 5, frozen below 1 GeV^2.
func OneLoopAlphas(alphasMZ, q2 float64) float64 {
	if q2 < q2Freeze {
		q2 = q2Freeze
	}
	b0 := (33 - 2*float64(contract.NumLightFlavors)) / (12 * math.Pi)
	return alphasMZ / (1 + alphasMZ*b0*math.Log(q2/(MZ*MZ)))
}
