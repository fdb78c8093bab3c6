// Package plot renders each histogram as a PNG with error bars.
package plot

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"strings"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/vg"

	"github.com/Sergeyir/HardProcessesLO/internal/histo"
	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
	"github.com/Sergeyir/HardProcessesLO/plugins/writer/filesystem"
)

type Options struct {
	Dir  string `json:"dir"`
	Name string `json:"name"`
	// Width/Height in centimetres; 0 uses 15x10.
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

type Writer struct {
	fs   *filesystem.FS
	name string
	w, h vg.Length
}

var _ contract.HistogramWriter = (*Writer)(nil)

func New(opts *Options) (*Writer, error) {
	if opts == nil || strings.TrimSpace(opts.Name) == "" {
		return nil, fmt.Errorf("%w: plot writer needs a file name", contract.ErrConfig)
	}
	if opts.Width < 0 || opts.Height < 0 {
		return nil, fmt.Errorf("%w: plot size must be positive", contract.ErrConfig)
	}
	fs, err := filesystem.New(&filesystem.Options{OutputDir: opts.Dir})
	if err != nil {
		return nil, fmt.Errorf("%w: plot writer: %v", contract.ErrConfig, err)
	}
	w, h := opts.Width, opts.Height
	if w == 0 {
		w = 15
	}
	if h == 0 {
		h = 10
	}
	return &Writer{fs: fs, name: opts.Name, w: vg.Length(w) * vg.Centimeter, h: vg.Length(h) * vg.Centimeter}, nil
}

// ID is the artifact for one histogram: <name>_<histogram>.png.
func (w *Writer) ID(histogram string) contract.ArtifactID {
	return contract.ArtifactID(w.name + "_" + histogram + ".png")
}

func (w *Writer) WriteHistograms(ctx context.Context, run contract.RunInfo, hs []contract.Histogram) error {
	for _, h := range hs {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf, err := w.render(run, h)
		if err != nil {
			return fmt.Errorf("plot %s: %w", h.Name, err)
		}
		if err := w.fs.Write(ctx, w.ID(h.Name), buf); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) render(run contract.RunInfo, h contract.Histogram) (*bytes.Buffer, error) {
	hh, err := histo.ToH1D(h)
	if err != nil {
		return nil, err
	}
	p := hplot.New()
	p.Title.Text = h.Title
	if p.Title.Text == "" {
		p.Title.Text = h.Name
	}
	if run.PDFSet != "" {
		p.Title.Text += fmt.Sprintf(" (%s, sqrt(s) = %g GeV)", run.PDFSet, run.SqrtS)
	}
	p.X.Label.Text = h.XLabel
	p.Y.Label.Text = h.YLabel

	hp := hplot.NewH1D(hh, hplot.WithYErrBars(true))
	hp.Infos.Style = hplot.HInfoNone
	hp.LineStyle.Color = color.RGBA{R: 200, A: 255}
	p.Add(hp, hplot.NewGrid())

	wt, err := p.Plot.WriterTo(w.w, w.h, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}
