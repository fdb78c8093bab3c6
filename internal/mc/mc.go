// Package mc integrates the flavour-summed cross section over rapidity
// (and optionally p_T) by plain Monte Carlo sampling.
//
// An Integrator holds no mutable state; every call owns its random source,
// so bins may be integrated concurrently.
package mc

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Sergeyir/HardProcessesLO/internal/flavorsum"
	"github.com/Sergeyir/HardProcessesLO/internal/kinematics"
	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

// ErrorModel selects how the statistical uncertainty of a bin is estimated.
type ErrorModel string

const (
	// Legacy: value/sqrt(accepted/2). An approximation kept for comparable output.
	Legacy ErrorModel = "legacy"
	// Variance: area * stddev(f)/sqrt(N) over all draws, rejected draws as zeros.
	Variance ErrorModel = "variance"
)

// ParseErrorModel accepts "" as Legacy.
func ParseErrorModel(s string) (ErrorModel, error) {
	switch ErrorModel(strings.ToLower(strings.TrimSpace(s))) {
	case "", Legacy:
		return Legacy, nil
	case Variance:
		return Variance, nil
	default:
		return "", fmt.Errorf("%w: error_model %q (want legacy|variance)", contract.ErrConfig, s)
	}
}

// ctxEvery is the sample stride between cancellation checks.
const ctxEvery = 4096

// Integrator evaluates single-bin integrals.
type Integrator struct {
	Agg   *flavorsum.Aggregator
	Model ErrorModel
}

// New returns an Integrator with the legacy error model.
func New(agg *flavorsum.Aggregator) *Integrator {
	return &Integrator{Agg: agg, Model: Legacy}
}

// Result is the outcome of one integration.
type Result struct {
	Value float64
	Error float64
	// Accepted counts kinematically admissible draws out of Samples.
	Accepted int64
	Samples  int64
}

// Degenerate reports that no admissible draw was found; Value and Error are 0.
func (r Result) Degenerate() bool { return r.Accepted == 0 }

// Rejected is Samples-Accepted.
func (r Result) Rejected() int64 { return r.Samples - r.Accepted }

// PTRequest asks for dσ/dp_T at a fixed p_T.
type PTRequest struct {
	PT      float64
	SqrtS   float64
	AbsYMax float64
	Samples int
}

func (r PTRequest) validate() error {
	if !(r.PT > 0) || !(r.SqrtS > 0) || !(r.AbsYMax >= 0) || r.Samples <= 0 ||
		math.IsInf(r.PT, 0) || math.IsInf(r.SqrtS, 0) || math.IsInf(r.AbsYMax, 0) {
		return fmt.Errorf("%w: dσ/dp_T request %+v", contract.ErrInvalidInput, r)
	}
	return nil
}

// DSigmaDPT integrates d^3σ/dp_T dy1 dy2 over the rapidity square
// [-AbsYMax, AbsYMax]^2. Draws with x1 or x2 outside (0, 1] are rejected and
// shrink the effective area instead of contributing.
func (in *Integrator) DSigmaDPT(ctx context.Context, rng *rand.Rand, req PTRequest) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}
	n := int64(req.Samples)
	var sum, sumSq float64
	var acc int64
	for i := int64(0); i < n; i++ {
		if i%ctxEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		y1 := (2*rng.Float64() - 1) * req.AbsYMax
		y2 := (2*rng.Float64() - 1) * req.AbsYMax
		x1 := kinematics.X1(req.PT, req.SqrtS, y1, y2)
		x2 := kinematics.X2(req.PT, req.SqrtS, y1, y2)
		if !kinematics.Admissible(x1) || !kinematics.Admissible(x2) {
			continue
		}
		f, err := in.Agg.DSigmaDPTDY1DY2(req.PT, kinematics.SHat(req.SqrtS, x1, x2), y1, y2, x1, x2)
		if err != nil {
			return Result{}, err
		}
		sum += f
		sumSq += f * f
		acc++
	}
	res := Result{Accepted: acc, Samples: n}
	if acc == 0 {
		return res, nil
	}
	area := 4 * req.AbsYMax * req.AbsYMax * float64(acc) / float64(n)
	res.Value = sum * area / float64(acc)
	switch in.Model {
	case Variance:
		res.Error = 4 * req.AbsYMax * req.AbsYMax * stdErr(sum, sumSq, n)
	default:
		res.Error = res.Value / math.Sqrt(float64(acc)/2)
	}
	return res, nil
}

// stdErr is the standard error of the mean of n draws with the given sums.
func stdErr(sum, sumSq float64, n int64) float64 {
	if n < 2 {
		return 0
	}
	N := float64(n)
	mean := sum / N
	v := (sumSq/N - mean*mean) * N / (N - 1)
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v / N)
}

// DeltaYRequest asks for dσ/dΔy at a fixed rapidity difference, integrating
// p_T from PTMin up to the kinematic limit.
type DeltaYRequest struct {
	DeltaY  float64
	SqrtS   float64
	AbsYMax float64
	PTMin   float64
	// DecayScale is the slope of the exponential p_T proposal; 0 means max(1, PTMin).
	DecayScale float64
	Samples    int
}

func (r DeltaYRequest) validate() error {
	if math.IsNaN(r.DeltaY) || math.IsInf(r.DeltaY, 0) || !(r.SqrtS > 0) || math.IsInf(r.SqrtS, 0) ||
		!(r.AbsYMax >= 0) || math.IsInf(r.AbsYMax, 0) || !(r.PTMin > 0) || !(r.DecayScale >= 0) || r.Samples <= 0 {
		return fmt.Errorf("%w: dσ/dΔy request %+v", contract.ErrInvalidInput, r)
	}
	return nil
}

func (r DeltaYRequest) scale() float64 {
	if r.DecayScale > 0 {
		return r.DecayScale
	}
	return math.Max(1, r.PTMin)
}

// truncExp draws from exp(-(x-lo)/tau) restricted to [lo, hi] and returns the
// draw with its normalised density.
func truncExp(rng *rand.Rand, lo, hi, tau float64) (x, density float64) {
	mass := -math.Expm1(-(hi - lo) / tau)
	x = lo - tau*math.Log1p(-rng.Float64()*mass)
	if x > hi {
		x = hi
	}
	return x, math.Exp(-(x-lo)/tau) / (tau * mass)
}

// DSigmaDDeltaY integrates d^3σ/dp_T dy1 dy2 over the pair rapidity
// Y = (y1+y2)/2 and over p_T at fixed Δy = y1-y2. p_T is drawn from a
// truncated exponential and each draw carries the weight 1/g(p_T). The sum
// of weights is normalised by its exact expectation N*(pTmax-pTmin) rather
// than by its sampled value, whose variance grows like exp((pTmax-pTmin)/tau).
func (in *Integrator) DSigmaDDeltaY(ctx context.Context, rng *rand.Rand, req DeltaYRequest) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}
	n := int64(req.Samples)
	res := Result{Samples: n}
	halfY := req.AbsYMax - math.Abs(req.DeltaY)/2
	lo, hi := req.PTMin, kinematics.MaxPT(req.SqrtS, req.DeltaY)
	if !(halfY > 0) || !(hi > lo) {
		return res, nil
	}
	tau := req.scale()

	var sum, sumSq float64
	for i := int64(0); i < n; i++ {
		if i%ctxEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		Y := (2*rng.Float64() - 1) * halfY
		pT, g := truncExp(rng, lo, hi, tau)
		y1, y2 := Y+req.DeltaY/2, Y-req.DeltaY/2
		x1 := kinematics.X1(pT, req.SqrtS, y1, y2)
		x2 := kinematics.X2(pT, req.SqrtS, y1, y2)
		if !kinematics.Admissible(x1) || !kinematics.Admissible(x2) {
			continue
		}
		f, err := in.Agg.DSigmaDPTDY1DY2(pT, kinematics.SHat(req.SqrtS, x1, x2), y1, y2, x1, x2)
		if err != nil {
			return Result{}, err
		}
		fw := f / g
		sum += fw
		sumSq += fw * fw
		res.Accepted++
	}
	if res.Accepted == 0 {
		return res, nil
	}
	lenY := 2 * halfY
	res.Value = lenY * sum / float64(n)
	switch in.Model {
	case Variance:
		res.Error = lenY * stdErr(sum, sumSq, n)
	default:
		res.Error = res.Value / math.Sqrt(float64(res.Accepted)/2)
	}
	return res, nil
}

// BinRand returns the random source of one histogram bin. Streams for
// distinct bins are independent, so results do not depend on scheduling.
func BinRand(seed uint64, bin int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(bin)))
}

// ClockSeed derives a seed from wall time in milliseconds modulo 9e8.
func ClockSeed(now time.Time) uint64 {
	return uint64(now.UnixMilli() % 900000000)
}
