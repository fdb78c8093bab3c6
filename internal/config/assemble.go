package config

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Sergeyir/HardProcessesLO/internal/mc"
	"github.com/Sergeyir/HardProcessesLO/internal/pipeline"
	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
	"github.com/Sergeyir/HardProcessesLO/pkg/registry"
)

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", contract.ErrConfig, fmt.Sprintf(format, args...))
}

// Validate checks ranges and names statically; nothing is opened here.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.PDFSet) == "" {
		return invalid("pdfset empty")
	}
	if !finite(cfg.PTHatMin) || cfg.PTHatMin < 0 {
		return invalid("pthatmin must be >= 0, got %g", cfg.PTHatMin)
	}
	if !finite(cfg.AbsMaxY) || cfg.AbsMaxY < 0 {
		return invalid("abs_max_y must be >= 0, got %g", cfg.AbsMaxY)
	}
	if !finite(cfg.Energy) || cfg.Energy <= 0 {
		return invalid("energy must be > 0, got %g", cfg.Energy)
	}
	if cfg.AlphasMZ < 0 || cfg.AlphasMZ >= 1 {
		return invalid("alphas_mz must be in [0, 1), got %g", cfg.AlphasMZ)
	}
	switch strings.ToLower(cfg.Units) {
	case "", "gev", "pb":
	default:
		return invalid("units %q (want gev|pb)", cfg.Units)
	}
	h := cfg.Histogram
	if h.Bins < 0 {
		return invalid("histogram.bins must be >= 0")
	}
	if !finite(h.PTMin) || h.PTMin < 0 {
		return invalid("histogram.pt_min must be >= 0")
	}
	if !finite(h.PTMax) || (h.PTMax != 0 && h.PTMax <= h.PTMin) {
		return invalid("histogram.pt_max must exceed pt_min")
	}
	if h.PTMax == 0 && 100+cfg.PTHatMin <= h.PTMin {
		return invalid("histogram.pt_min must be below the default pt_max %g", 100+cfg.PTHatMin)
	}
	if d := cfg.DeltaY; d.Enabled {
		if d.Bins <= 0 {
			return invalid("deltay.bins must be > 0")
		}
		if d.DecayScale < 0 || !finite(d.DecayScale) {
			return invalid("deltay.decay_scale must be >= 0")
		}
		if cfg.PTHatMin <= 0 {
			return invalid("deltay needs pthatmin > 0 as the lower p_T bound")
		}
		if cfg.AbsMaxY <= 0 {
			return invalid("deltay needs abs_max_y > 0")
		}
	}
	if cfg.Integration.Seed > math.MaxInt64 {
		return invalid("integration.seed must be below 2^63, got %d", cfg.Integration.Seed)
	}
	if cfg.Integration.Concurrency < 0 {
		return invalid("integration.concurrency must be >= 0")
	}
	if _, err := mc.ParseErrorModel(cfg.Integration.ErrorModel); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Output.Dir) == "" {
		return invalid("output.dir empty")
	}
	if n := cfg.Output.Name; n == "" || n != filepath.Base(n) || n == "." || n == ".." {
		return invalid("output.name %q must be a plain file stem", n)
	}
	seen := map[string]bool{}
	for _, f := range cfg.Output.Formats {
		if registry.Writer[f] == nil {
			return invalid("output format %q not registered", f)
		}
		if seen[f] {
			return invalid("output format %q listed twice", f)
		}
		seen[f] = true
	}
	return nil
}

// Binning resolves the p_T histogram defaults that depend on pthatmin.
func Binning(cfg Config) (bins int, lo, hi float64) {
	bins, lo, hi = cfg.Histogram.Bins, cfg.Histogram.PTMin, cfg.Histogram.PTMax
	if bins == 0 {
		bins = 1000 + int(math.Floor(cfg.PTHatMin))
	}
	if hi == 0 {
		hi = 100 + cfg.PTHatMin
	}
	return bins, lo, hi
}

// PDFRaw returns the factory name and options for cfg.PDFSet: built-in sets
// by name, anything else through the LHAPDF grid reader.
func PDFRaw(cfg Config) (string, json.RawMessage, error) {
	if _, ok := registry.PDF[cfg.PDFSet]; ok && cfg.PDFSet != registry.LHAGrid {
		raw, err := json.Marshal(map[string]any{"alphas_mz": cfg.AlphasMZ, "name": cfg.PDFSet})
		return cfg.PDFSet, raw, err
	}
	var paths []string
	if cfg.PDFPath != "" {
		paths = []string{cfg.PDFPath}
	}
	raw, err := json.Marshal(map[string]any{"set": cfg.PDFSet, "paths": paths})
	return registry.LHAGrid, raw, err
}

// Assemble validates cfg and builds the pipeline inputs. The sample count
// comes from the command line and is left for the caller to set.
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	name, raw, err := PDFRaw(cfg)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	pdf, err := registry.PDF[name](raw)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}

	var outs []pipeline.Output
	for _, f := range cfg.Output.Formats {
		wraw, err := json.Marshal(map[string]any{"dir": cfg.Output.Dir, "name": cfg.Output.Name})
		if err != nil {
			return pipeline.Components{}, pipeline.Settings{}, err
		}
		w, err := registry.Writer[f](wraw)
		if err != nil {
			return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("output %s: %w", f, err)
		}
		outs = append(outs, pipeline.Output{Format: f, Writer: w})
	}

	model, _ := mc.ParseErrorModel(cfg.Integration.ErrorModel)
	seed := cfg.Integration.Seed
	if seed == 0 {
		seed = mc.ClockSeed(time.Now())
	}
	workers := cfg.Integration.Concurrency
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	bins, lo, hi := Binning(cfg)
	units := strings.ToLower(cfg.Units)
	if units == "" {
		units = "gev"
	}

	comp := pipeline.Components{PDF: pdf, Outputs: outs}
	set := pipeline.Settings{
		PDFSet:            cfg.PDFSet,
		SqrtS:             cfg.Energy,
		PTHatMin:          cfg.PTHatMin,
		AbsMaxY:           cfg.AbsMaxY,
		Bins:              bins,
		PTMin:             lo,
		PTMax:             hi,
		SkipBelowPTHatMin: cfg.Histogram.SkipBelowPTHatMin,
		DeltaY:            cfg.DeltaY.Enabled,
		DeltaYBins:        cfg.DeltaY.Bins,
		DecayScale:        cfg.DeltaY.DecayScale,
		Seed:              seed,
		Concurrency:       workers,
		ErrorModel:        model,
		Units:             units,
		MetricsFile:       cfg.Metrics.File,
	}
	return comp, set, nil
}
