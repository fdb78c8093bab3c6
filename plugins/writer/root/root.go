// Package root writes histograms as ROOT TH1D objects with go-hep groot.
package root

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"

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
		return nil, fmt.Errorf("%w: root writer needs a file name", contract.ErrConfig)
	}
	fs, err := filesystem.New(&filesystem.Options{OutputDir: opts.Dir})
	if err != nil {
		return nil, fmt.Errorf("%w: root writer: %v", contract.ErrConfig, err)
	}
	return &Writer{fs: fs, name: opts.Name}, nil
}

// ID is the artifact the histograms are written to.
func (w *Writer) ID() contract.ArtifactID { return contract.ArtifactID(w.name + ".root") }

// WriteHistograms stores one TH1D per histogram, keyed by histogram name.
func (w *Writer) WriteHistograms(ctx context.Context, run contract.RunInfo, hs []contract.Histogram) error {
	objs := make([]*rhist.H1D, 0, len(hs))
	names := make([]string, 0, len(hs))
	for _, h := range hs {
		hh, err := histo.ToH1D(h)
		if err != nil {
			return err
		}
		objs = append(objs, rhist.NewH1DFrom(hh))
		names = append(names, h.Name)
	}
	return w.fs.Commit(ctx, w.ID(), func(path string) (err error) {
		f, err := riofs.Create(path)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, f.Close()) }()
		for i, o := range objs {
			if err := f.Put(names[i], o); err != nil {
				return fmt.Errorf("put %s: %w", names[i], err)
			}
		}
		return nil
	})
}
