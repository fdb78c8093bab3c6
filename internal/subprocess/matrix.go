package subprocess

import (
	"github.com/Sergeyir/HardProcessesLO/internal/kinematics"
)

// Spin- and colour-averaged squared matrix elements divided by g^4, for the
// leading-order massless 2->2 QCD processes (Combridge, Kripfganz, Ranft;
// PDG "Cross-section formulae", sec. 51). Each function takes t as measured
// to the outgoing parton written first.

func qqPrime(s, t, u float64) float64 { return 4. / 9. * (s*s + u*u) / (t * t) }

func qqIdentical(s, t, u float64) float64 {
	return 4./9.*((s*s+u*u)/(t*t)+(s*s+t*t)/(u*u)) - 8./27.*s*s/(u*t)
}

func qqbarToQPrimeQbarPrime(s, t, u float64) float64 { return 4. / 9. * (t*t + u*u) / (s * s) }

func qqbarToQQbar(s, t, u float64) float64 {
	return 4./9.*((s*s+u*u)/(t*t)+(t*t+u*u)/(s*s)) - 8./27.*u*u/(s*t)
}

func qqbarToGG(s, t, u float64) float64 {
	return 32./27.*(t*t+u*u)/(t*u) - 8./3.*(t*t+u*u)/(s*s)
}

func ggToQQbar(s, t, u float64) float64 {
	return 1./6.*(t*t+u*u)/(t*u) - 3./8.*(t*t+u*u)/(s*s)
}

func qgToQG(s, t, u float64) float64 {
	return -4./9.*(s*s+u*u)/(s*u) + (u*u+s*s)/(t*t)
}

func ggToGG(s, t, u float64) float64 {
	return 9. / 2. * (3 - t*u/(s*s) - s*u/(t*t) - s*t/(u*u))
}

// both sums the two assignments of distinct outgoing partons to (y1, y2).
func both(f func(s, t, u float64) float64, m kinematics.Mandelstam) float64 {
	return f(m.S, m.T, m.U) + f(m.S, m.U, m.T)
}

// MatrixElement returns sum |M|^2/g^4 over final states for channel ch, for an
// unordered two-parton final state: distinct outgoing partons add both
// orientations, identical ones are counted once. nf is the number of
// quark flavours open in the final state. Unknown returns 0 and must be
// rejected by the caller.
func MatrixElement(ch Channel, m kinematics.Mandelstam, nf int) float64 {
	s, t, u := m.S, m.T, m.U
	switch ch {
	case QQSame:
		return qqIdentical(s, t, u)
	case QQDiff, QQbarDiff:
		// crossing q qbar' from q q' leaves the t-channel exchange unchanged
		return both(qqPrime, m)
	case QQbarSame:
		return both(qqbarToQQbar, m) +
			float64(nf-1)*both(qqbarToQPrimeQbarPrime, m) +
			qqbarToGG(s, t, u)
	case QG:
		return both(qgToQG, m)
	case GG:
		return ggToGG(s, t, u) + float64(nf)*both(ggToQQbar, m)
	default:
		return 0
	}
}
