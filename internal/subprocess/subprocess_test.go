package subprocess

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sergeyir/HardProcessesLO/internal/kinematics"
	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

type fixedAlpha float64

func (f fixedAlpha) XfxQ2(int, float64, float64) float64 { return 1 }
func (f fixedAlpha) AlphasQ2(float64) float64            { return float64(f) }

func TestClassify(t *testing.T) {
	cases := []struct {
		a, b contract.Flavor
		want Channel
	}{
		{contract.Up, contract.Up, QQSame},
		{-contract.Up, -contract.Up, QQSame},
		{contract.Up, contract.Down, QQDiff},
		{-contract.Strange, -contract.Charm, QQDiff},
		{contract.Up, -contract.Up, QQbarSame},
		{-contract.Bottom, contract.Bottom, QQbarSame},
		{contract.Up, -contract.Down, QQbarDiff},
		{contract.Gluon, contract.Down, QG},
		{-contract.Charm, contract.Gluon, QG},
		{contract.Gluon, contract.Gluon, GG},
		{contract.Flavor(7), contract.Up, Unknown},
		{contract.Gluon, contract.Flavor(-6), Unknown},
	}
	for _, tt := range cases {
		assert.Equal(t, tt.want, Classify(tt.a, tt.b), "%v %v", tt.a, tt.b)
	}
}

func TestQQSameMatchesReferenceFormula(t *testing.T) {
	e := NewEvaluator(fixedAlpha(0.2))
	const pT = 10.0
	for _, dy := range []float64{-1.7, -0.2, 0.4, 2.2} {
		sHat := 4 * pT * pT * math.Cosh(dy/2) * math.Cosh(dy/2)
		m := kinematics.Invariants(sHat, dy)
		s, tt, u := m.S, m.T, m.U
		// PDG eq. 51.7
		ref := 0.2 * 0.2 / (9 * s) * ((tt*tt+s*s)/(u*u) + (s*s+u*u)/(tt*tt) - 2*s*s/(3*u*tt))
		got, err := e.DSigmaDOmega(contract.Down, contract.Down, pT, sHat, dy)
		require.NoError(t, err)
		assert.InEpsilon(t, ref, got, 1e-12)
	}
}

func TestGGAtNinetyDegrees(t *testing.T) {
	m := kinematics.Invariants(400, 0)
	// gg->gg: 9/2*(3 - 1/4 + 2 + 2); gg->qqbar per flavour and orientation: 1/3 - 3/16
	want := 4.5*6.75 + 2*5*(1./3.-3./16.)
	assert.InEpsilon(t, want, MatrixElement(GG, m, 5), 1e-12)
}

func TestAllChannelsPositiveAndSymmetric(t *testing.T) {
	e := NewEvaluator(fixedAlpha(0.15))
	fl := contract.Flavors()
	for _, pT := range []float64{2, 10, 45} {
		for _, dy := range []float64{-3.1, -1, -0.05, 0, 0.6, 2.4} {
			sHat := 4 * pT * pT * math.Cosh(dy/2) * math.Cosh(dy/2)
			for _, a := range fl {
				for _, b := range fl {
					v, err := e.DSigmaDOmega(a, b, pT, sHat, dy)
					require.NoError(t, err)
					require.Greater(t, v, 0.0, "%v %v pT=%v dy=%v", a, b, pT, dy)
					swapped, err := e.DSigmaDOmega(b, a, pT, sHat, -dy)
					require.NoError(t, err)
					assert.InEpsilon(t, v, swapped, 1e-12)
					mirrored, err := e.DSigmaDOmega(a, b, pT, sHat, -dy)
					require.NoError(t, err)
					assert.InEpsilon(t, v, mirrored, 1e-12)
				}
			}
		}
	}
}

func TestChargeConjugation(t *testing.T) {
	e := NewEvaluator(fixedAlpha(0.15))
	sHat := 4 * 100 * math.Cosh(0.4) * math.Cosh(0.4)
	for _, a := range contract.Flavors() {
		for _, b := range contract.Flavors() {
			v, err := e.DSigmaDOmega(a, b, 10, sHat, 0.8)
			require.NoError(t, err)
			c, err := e.DSigmaDOmega(-a, -b, 10, sHat, 0.8)
			require.NoError(t, err)
			assert.InEpsilon(t, v, c, 1e-12)
		}
	}
}

func TestUnknownChannelIsAnError(t *testing.T) {
	e := NewEvaluator(fixedAlpha(0.1))
	_, err := e.DSigmaDOmega(contract.Flavor(6), contract.Up, 10, 400, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrUnknownChannel))
	assert.Zero(t, MatrixElement(Unknown, kinematics.Invariants(400, 0), 5))
}

func TestZeroPTRejected(t *testing.T) {
	e := NewEvaluator(fixedAlpha(0.1))
	for _, in := range []struct{ pT, s, dy float64 }{
		{0, 400, 0},
		{-1, 400, 0},
		{10, 0, 0},
		{10, 400, math.NaN()},
		{math.NaN(), 400, 0},
	} {
		_, err := e.DSigmaDOmega(contract.Up, contract.Up, in.pT, in.s, in.dy)
		assert.ErrorIs(t, err, contract.ErrInvalidInput, "%+v", in)
	}
}

func TestChannelString(t *testing.T) {
	assert.Equal(t, "qqbar'", QQbarDiff.String())
	assert.Equal(t, "unknown", Channel(42).String())
}
