// Package yaml writes the run description and every bin as one YAML document.
package yaml

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
	"github.com/Sergeyir/HardProcessesLO/plugins/writer/filesystem"
)

type Options struct {
	Dir  string `json:"dir"`
	Name string `json:"name"`
}

// Document is the file layout.
type Document struct {
	Run        contract.RunInfo `yaml:"run"`
	Histograms []Entry          `yaml:"histograms"`
}

type Entry struct {
	contract.Histogram `yaml:",inline"`
	Integral           float64 `yaml:"integral"`
	IntegralWidth      float64 `yaml:"integral_width"`
}

type Writer struct {
	fs   *filesystem.FS
	name string
}

var _ contract.HistogramWriter = (*Writer)(nil)

func New(opts *Options) (*Writer, error) {
	if opts == nil || strings.TrimSpace(opts.Name) == "" {
		return nil, fmt.Errorf("%w: yaml writer needs a file name", contract.ErrConfig)
	}
	fs, err := filesystem.New(&filesystem.Options{OutputDir: opts.Dir})
	if err != nil {
		return nil, fmt.Errorf("%w: yaml writer: %v", contract.ErrConfig, err)
	}
	return &Writer{fs: fs, name: opts.Name}, nil
}

func (w *Writer) ID() contract.ArtifactID { return contract.ArtifactID(w.name + ".yaml") }

func (w *Writer) WriteHistograms(ctx context.Context, run contract.RunInfo, hs []contract.Histogram) error {
	doc := Document{Run: run}
	for _, h := range hs {
		doc.Histograms = append(doc.Histograms, Entry{Histogram: h, Integral: h.Integral(), IntegralWidth: h.IntegralWidth()})
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return w.fs.Write(ctx, w.ID(), &buf)
}
