package contract

import "time"

// Bin is one histogram bin with its Monte Carlo bookkeeping.
type Bin struct {
	Low   float64 `yaml:"low"`
	High  float64 `yaml:"high"`
	Value float64 `yaml:"value"`
	Error float64 `yaml:"error"`
	// Accepted/Samples: kinematically admissible draws over total draws.
	Accepted int64 `yaml:"accepted"`
	Samples  int64 `yaml:"samples"`
	// Skipped: the bin was not integrated (below the hard-process cut).
	Skipped bool `yaml:"skipped,omitempty"`
}

// Center returns the bin midpoint.
func (b Bin) Center() float64 { return 0.5 * (b.Low + b.High) }

// Width returns High-Low.
func (b Bin) Width() float64 { return b.High - b.Low }

// Degenerate: integrated but no admissible sample was found.
func (b Bin) Degenerate() bool { return !b.Skipped && b.Samples > 0 && b.Accepted == 0 }

// Histogram is a one-dimensional result keyed by the bin variable (p_T or Δy).
// Bins are contiguous and sorted by Low.
type Histogram struct {
	Name   string `yaml:"name"`
	Title  string `yaml:"title"`
	XLabel string `yaml:"x_label"`
	YLabel string `yaml:"y_label"`
	Bins   []Bin  `yaml:"bins"`
}

// XMin/XMax return the histogram range; zero for an empty histogram.
func (h Histogram) XMin() float64 {
	if len(h.Bins) == 0 {
		return 0
	}
	return h.Bins[0].Low
}

func (h Histogram) XMax() float64 {
	if len(h.Bins) == 0 {
		return 0
	}
	return h.Bins[len(h.Bins)-1].High
}

// Integral is the plain sum of bin contents (ROOT TH1::Integral semantics).
func (h Histogram) Integral() float64 {
	var s float64
	for _, b := range h.Bins {
		s += b.Value
	}
	return s
}

// IntegralWidth is the sum of content times bin width, i.e. the integrated cross section.
func (h Histogram) IntegralWidth() float64 {
	var s float64
	for _, b := range h.Bins {
		s += b.Value * b.Width()
	}
	return s
}

// RunInfo describes one integration run; written next to the histograms.
type RunInfo struct {
	ID         string    `yaml:"id"`
	PDFSet     string    `yaml:"pdfset"`
	SqrtS      float64   `yaml:"energy"`
	PTHatMin   float64   `yaml:"pthatmin"`
	AbsMaxY    float64   `yaml:"abs_max_y"`
	Samples    int64     `yaml:"samples"`
	Seed       uint64    `yaml:"seed"`
	ErrorModel string    `yaml:"error_model"`
	Units      string    `yaml:"units"`
	Started    time.Time `yaml:"started"`
	Finished   time.Time `yaml:"finished"`
}
