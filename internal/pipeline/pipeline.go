// Package pipeline drives a run: it lays out the histograms, integrates the
// bins in parallel and hands the result to every configured writer.
//
// Concurrency lives only here; the integrator, aggregator and PDF sets are
// synchronous. Each bin owns a generator seeded from (seed, bin index), so a
// run is reproducible for any worker count. The first error cancels the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Sergeyir/HardProcessesLO/internal/diag"
	"github.com/Sergeyir/HardProcessesLO/internal/flavorsum"
	"github.com/Sergeyir/HardProcessesLO/internal/mc"
	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

// Histogram names, also used as ROOT keys.
const (
	PTHistogram     = "dsigmadpT"
	DeltaYHistogram = "dsigmaddeltay"
)

// deltaYStream offsets the Δy bin streams from the p_T bin streams.
const deltaYStream = 1 << 30

// Output is one configured writer and its format name.
type Output struct {
	Format string
	Writer contract.HistogramWriter
}

// Components are the collaborators of a run.
type Components struct {
	PDF     contract.PDF
	Outputs []Output
	// Terminal is optional.
	Terminal *diag.Terminal
}

// Settings are the resolved run parameters; config.Assemble fills all but Samples.
type Settings struct {
	PDFSet   string
	SqrtS    float64
	PTHatMin float64
	AbsMaxY  float64

	Bins              int
	PTMin, PTMax      float64
	SkipBelowPTHatMin bool

	DeltaY     bool
	DeltaYBins int
	DecayScale float64

	// Samples is the number of draws per bin.
	Samples     int
	Seed        uint64
	Concurrency int
	ErrorModel  mc.ErrorModel
	// Units is gev (GeV^-3) or pb (pb/GeV).
	Units       string
	MetricsFile string
}

// Summary reports what a run produced.
type Summary struct {
	RunID      string
	Seed       uint64
	Histograms []contract.Histogram
	// Integral is the sum of p_T bin contents; IntegralWidth weights by bin width.
	Integral       float64
	IntegralWidth  float64
	DegenerateBins int
	Accepted       int64
	Samples        int64
	RejectionRate  float64
	Duration       time.Duration
}

func sanity(comp Components, set Settings) error {
	switch {
	case comp.PDF == nil:
		return errors.New("pdf is nil")
	case set.Samples <= 0:
		return fmt.Errorf("samples must be > 0, got %d", set.Samples)
	case set.Bins <= 0:
		return fmt.Errorf("bins must be > 0, got %d", set.Bins)
	case !(set.PTMax > set.PTMin) || set.PTMin < 0:
		return fmt.Errorf("p_T range [%g, %g] is empty", set.PTMin, set.PTMax)
	case !(set.SqrtS > 0):
		return fmt.Errorf("sqrt(s) must be > 0, got %g", set.SqrtS)
	case set.AbsMaxY < 0:
		return fmt.Errorf("abs_max_y must be >= 0, got %g", set.AbsMaxY)
	case set.DeltaY && set.DeltaYBins <= 0:
		return fmt.Errorf("deltay bins must be > 0, got %d", set.DeltaYBins)
	}
	for i, o := range comp.Outputs {
		if o.Writer == nil {
			return fmt.Errorf("output %d (%s) has no writer", i, o.Format)
		}
	}
	return nil
}

// Layout returns n contiguous equal-width bins over [lo, hi].
func Layout(n int, lo, hi float64) []contract.Bin {
	bins := make([]contract.Bin, n)
	w := (hi - lo) / float64(n)
	for i := range bins {
		bins[i].Low = lo + float64(i)*w
		bins[i].High = lo + float64(i+1)*w
	}
	bins[n-1].High = hi
	return bins
}

// tally accumulates per-run counters across workers.
type tally struct {
	mu         sync.Mutex
	done       int
	degenerate int
	accepted   int64
	samples    int64
}

func (t *tally) add(r mc.Result) (done, degenerate int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	if r.Degenerate() {
		t.degenerate++
	}
	t.accepted += r.Accepted
	t.samples += r.Samples
	return t.done, t.degenerate
}

type binFunc func(ctx context.Context, bin int, b contract.Bin) (mc.Result, error)

// fill integrates every bin of h that is not already marked skipped.
func fill(ctx context.Context, h *contract.Histogram, set Settings, scale float64, eval binFunc, term *diag.Terminal, logger *diag.Logger, tl *tally) error {
	todo := 0
	for _, b := range h.Bins {
		if !b.Skipped {
			todo++
		}
	}
	term.HistogramStart(h.Name, todo)
	start := time.Now()
	// per-histogram counters for the terminal
	local := &tally{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(set.Concurrency)
	for i := range h.Bins {
		if h.Bins[i].Skipped {
			continue
		}
		g.Go(func() error {
			timer := logger.StartBin("mc", h.Name, i)
			r, err := eval(gctx, i, h.Bins[i])
			if err != nil {
				code := diag.Classify(err)
				logger.ErrorWithKV("mc", string(code), "bin failed", nil, map[string]string{
					"histogram": h.Name, "bin": strconv.Itoa(i), "err": err.Error(),
				})
				diag.IncOp("mc", "bin", "error")
				diag.IncError("mc", string(code))
				return fmt.Errorf("%s bin %d: %w", h.Name, i, err)
			}
			// bins are disjoint, so each goroutine owns its slot
			b := &h.Bins[i]
			b.Value = r.Value * scale
			b.Error = r.Error * scale
			b.Accepted = r.Accepted
			b.Samples = r.Samples

			diag.AddSamples(r.Accepted, r.Rejected())
			if r.Degenerate() {
				diag.IncDegenerate()
				logger.Warn("mc", "no admissible sample", map[string]string{
					"histogram": h.Name, "bin": strconv.Itoa(i), "center": strconv.FormatFloat(b.Center(), 'g', -1, 64),
				})
			}
			diag.IncOp("mc", "bin", "success")
			diag.ObserveDuration("mc", "bin", timer.Elapsed().Milliseconds())
			timer.Finish(h.Name, r.Accepted)

			tl.add(r)
			done, degenerate := local.add(r)
			term.BinProgress(done, todo, degenerate)
			return nil
		})
	}
	err := g.Wait()
	term.HistogramFinish(err == nil, time.Since(start))
	if err != nil {
		return err
	}
	logger.InfoFinish("pipeline", h.Name, start, int64(todo))
	return nil
}

// Run integrates the configured histograms and writes them to every output in order.
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (Summary, error) {
	if err := sanity(comp, set); err != nil {
		return Summary{}, fmt.Errorf("%w: sanity: %v", contract.ErrInvalidInput, err)
	}
	if set.Concurrency <= 0 {
		set.Concurrency = 1
	}
	if set.ErrorModel == "" {
		set.ErrorModel = mc.Legacy
	}
	scale, yUnit := 1.0, "GeV^{-3}"
	if set.Units == "pb" {
		scale, yUnit = flavorsum.GeV2ToPb, "pb/GeV"
	}

	run := contract.RunInfo{
		ID:         uuid.NewString(),
		PDFSet:     set.PDFSet,
		SqrtS:      set.SqrtS,
		PTHatMin:   set.PTHatMin,
		AbsMaxY:    set.AbsMaxY,
		Samples:    int64(set.Samples),
		Seed:       set.Seed,
		ErrorModel: string(set.ErrorModel),
		Units:      set.Units,
		Started:    time.Now().UTC(),
	}
	runTimer := logger.StartWithKV("pipeline", "run", map[string]string{
		"run_id":  run.ID,
		"seed":    strconv.FormatUint(set.Seed, 10),
		"pdfset":  set.PDFSet,
		"samples": strconv.Itoa(set.Samples),
		"workers": strconv.Itoa(set.Concurrency),
	})
	comp.Terminal.RunStart(set.Concurrency, set.PDFSet)
	ok := false
	defer func() { comp.Terminal.RunFinish(ok, runTimer.Elapsed()) }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := mc.New(flavorsum.New(comp.PDF))
	in.Model = set.ErrorModel
	tl := &tally{}

	pt := contract.Histogram{
		Name:   PTHistogram,
		Title:  fmt.Sprintf("LO dijet d#sigma/dp_{T}, #sqrt{s} = %g GeV, |y| < %g", set.SqrtS, set.AbsMaxY),
		XLabel: "p_{T} [GeV]",
		YLabel: "d#sigma/dp_{T} [" + yUnit + "]",
		Bins:   Layout(set.Bins, set.PTMin, set.PTMax),
	}
	if set.SkipBelowPTHatMin {
		for i := range pt.Bins {
			pt.Bins[i].Skipped = pt.Bins[i].Center() < set.PTHatMin
		}
	}
	ptEval := func(ctx context.Context, i int, b contract.Bin) (mc.Result, error) {
		return in.DSigmaDPT(ctx, mc.BinRand(set.Seed, i), mc.PTRequest{
			PT: b.Center(), SqrtS: set.SqrtS, AbsYMax: set.AbsMaxY, Samples: set.Samples,
		})
	}
	if err := fill(ctx, &pt, set, scale, ptEval, comp.Terminal, logger, tl); err != nil {
		return Summary{}, err
	}
	hs := []contract.Histogram{pt}

	if set.DeltaY {
		dyUnit := "GeV^{-2}"
		if set.Units == "pb" {
			dyUnit = "pb"
		}
		dy := contract.Histogram{
			Name:   DeltaYHistogram,
			Title:  fmt.Sprintf("LO dijet d#sigma/d#Deltay, p_{T} > %g GeV", set.PTHatMin),
			XLabel: "#Deltay",
			YLabel: "d#sigma/d#Deltay [" + dyUnit + "]",
			Bins:   Layout(set.DeltaYBins, -2*set.AbsMaxY, 2*set.AbsMaxY),
		}
		dyEval := func(ctx context.Context, i int, b contract.Bin) (mc.Result, error) {
			return in.DSigmaDDeltaY(ctx, mc.BinRand(set.Seed, deltaYStream+i), mc.DeltaYRequest{
				DeltaY: b.Center(), SqrtS: set.SqrtS, AbsYMax: set.AbsMaxY,
				PTMin: set.PTHatMin, DecayScale: set.DecayScale, Samples: set.Samples,
			})
		}
		if err := fill(ctx, &dy, set, scale, dyEval, comp.Terminal, logger, tl); err != nil {
			return Summary{}, err
		}
		hs = append(hs, dy)
	}
	run.Finished = time.Now().UTC()

	for _, o := range comp.Outputs {
		wt := logger.StartWithKV("writer", "write", map[string]string{"format": o.Format})
		if err := o.Writer.WriteHistograms(ctx, run, hs); err != nil {
			code := diag.Classify(err)
			logger.ErrorWithKV("writer", string(code), "write failed", nil, map[string]string{"format": o.Format})
			diag.IncOp("writer", "write", "error")
			diag.IncError("writer", string(code))
			return Summary{}, fmt.Errorf("output %s: %w", o.Format, err)
		}
		wt.Finish("write "+o.Format, int64(len(hs)))
		diag.IncOp("writer", "write", "success")
	}

	sum := Summary{
		RunID:          run.ID,
		Seed:           set.Seed,
		Histograms:     hs,
		Integral:       pt.Integral(),
		IntegralWidth:  pt.IntegralWidth(),
		DegenerateBins: tl.degenerate,
		Accepted:       tl.accepted,
		Samples:        tl.samples,
		Duration:       runTimer.Elapsed(),
	}
	if tl.samples > 0 {
		sum.RejectionRate = float64(tl.samples-tl.accepted) / float64(tl.samples)
	}
	if math.IsNaN(sum.Integral) {
		return sum, fmt.Errorf("%w: integral is NaN", contract.ErrInvalidInput)
	}
	if set.MetricsFile != "" {
		if err := diag.WriteTextfile(set.MetricsFile); err != nil {
			logger.Error("metrics", string(diag.Classify(err)), "textfile: "+err.Error(), nil)
			return sum, fmt.Errorf("metrics textfile: %w", err)
		}
	}
	runTimer.Finish("run", int64(len(hs)))
	ok = true
	return sum, nil
}
