// Package yoda writes histograms in the YODA text format used by Rivet.
package yoda

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Sergeyir/HardProcessesLO/internal/histo"
	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
	"github.com/Sergeyir/HardProcessesLO/plugins/writer/filesystem"
)

type Options struct {
	Dir  string `json:"dir"`
	Name string `json:"name"`
}

type Writer struct {
	fs   *filesystem.FS
	name string
}

var _ contract.HistogramWriter = (*Writer)(nil)

func New(opts *Options) (*Writer, error) {
	if opts == nil || strings.TrimSpace(opts.Name) == "" {
		return nil, fmt.Errorf("%w: yoda writer needs a file name", contract.ErrConfig)
	}
	fs, err := filesystem.New(&filesystem.Options{OutputDir: opts.Dir})
	if err != nil {
		return nil, fmt.Errorf("%w: yoda writer: %v", contract.ErrConfig, err)
	}
	return &Writer{fs: fs, name: opts.Name}, nil
}

func (w *Writer) ID() contract.ArtifactID { return contract.ArtifactID(w.name + ".yoda") }

func (w *Writer) WriteHistograms(ctx context.Context, run contract.RunInfo, hs []contract.Histogram) error {
	var buf bytes.Buffer
	for _, h := range hs {
		hh, err := histo.ToH1D(h)
		if err != nil {
			return err
		}
		b, err := hh.MarshalYODA()
		if err != nil {
			return fmt.Errorf("yoda %s: %w", h.Name, err)
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	return w.fs.Write(ctx, w.ID(), &buf)
}
