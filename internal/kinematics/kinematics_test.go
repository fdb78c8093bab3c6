package kinematics

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/fmom"
)

// outgoing builds the two massless final-state partons back to back in phi.
func outgoing(pT, y1, y2 float64) (fmom.PxPyPzE, fmom.PxPyPzE) {
	p1 := fmom.NewPxPyPzE(pT, 0, pT*math.Sinh(y1), pT*math.Cosh(y1))
	p2 := fmom.NewPxPyPzE(-pT, 0, pT*math.Sinh(y2), pT*math.Cosh(y2))
	return p1, p2
}

func TestXSymmetry(t *testing.T) {
	// swapping both rapidity signs exchanges the roles of the two hadrons
	for _, tt := range []struct{ pT, rs, y1, y2 float64 }{
		{10, 200, 0.3, -1.2},
		{5, 13000, 2, 1.5},
		{40, 200, -0.7, 0.1},
	} {
		assert.InDelta(t, X1(tt.pT, tt.rs, tt.y1, tt.y2), X2(tt.pT, tt.rs, -tt.y1, -tt.y2), 1e-12)
	}
	// x1 == x2 for a system at rest
	assert.InDelta(t, X1(10, 200, 0.5, -0.5), X2(10, 200, 0.5, -0.5), 1e-15)
	assert.InDelta(t, 0.1*math.Cosh(0.5), X1(10, 200, 0.5, -0.5), 1e-15)
}

func TestEnergyMomentumIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	const sqrtS = 200.0
	checked := 0
	for i := 0; i < 2000; i++ {
		pT := 1 + 60*rng.Float64()
		y1 := -3 + 6*rng.Float64()
		y2 := -3 + 6*rng.Float64()
		x1, x2 := X1(pT, sqrtS, y1, y2), X2(pT, sqrtS, y1, y2)
		if !Admissible(x1) || !Admissible(x2) {
			continue
		}
		checked++
		s := SHat(sqrtS, x1, x2)
		require.GreaterOrEqual(t, s, 0.0)
		require.LessOrEqual(t, s, sqrtS*sqrtS)

		p1, p2 := outgoing(pT, y1, y2)
		sum := fmom.Add(&p1, &p2)
		assert.InEpsilon(t, sum.M2(), s, 1e-9)
		// longitudinal momentum balance: (x1-x2)*sqrtS/2 = pz of the pair
		assert.InEpsilon(t, (x1+x2)*sqrtS/2, sum.E(), 1e-9)
		assert.InDelta(t, (x1-x2)*sqrtS/2, sum.Pz(), 1e-9*sum.E())
	}
	require.Greater(t, checked, 100)
}

func TestInvariants(t *testing.T) {
	const pT = 10.0
	for _, dy := range []float64{-2.5, -0.3, 0, 0.8, 3} {
		s := 4 * pT * pT * math.Cosh(dy/2) * math.Cosh(dy/2)
		m := Invariants(s, dy)
		assert.InDelta(t, 0, m.S+m.T+m.U, 1e-9)
		assert.InEpsilon(t, pT*pT, m.PT2(), 1e-12)
		assert.Less(t, m.T, 0.0)
		assert.Less(t, m.U, 0.0)
		sw := m.Swap()
		assert.Equal(t, m.T, sw.U)
		assert.Equal(t, Invariants(s, -dy).T, sw.T)
	}
}

func TestAdmissible(t *testing.T) {
	assert.False(t, Admissible(0))
	assert.False(t, Admissible(-0.1))
	assert.True(t, Admissible(1))
	assert.False(t, Admissible(1.0000001))
	assert.False(t, Admissible(math.NaN()))
}

func TestMaxPT(t *testing.T) {
	assert.InDelta(t, 100, MaxPT(200, 0), 1e-12)
	// at MaxPT the centred system sits on the x = 1 boundary
	pt := MaxPT(200, 1.2)
	assert.InDelta(t, 1, X1(pt, 200, 0.6, -0.6), 1e-12)
}
