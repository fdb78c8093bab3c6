// Package registry maps configuration names to plugin factories. Options
// arrive as raw JSON and are decoded strictly.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
	"github.com/Sergeyir/HardProcessesLO/plugins/pdf/lhagrid"
	"github.com/Sergeyir/HardProcessesLO/plugins/pdf/toy"
	wplot "github.com/Sergeyir/HardProcessesLO/plugins/writer/plot"
	wroot "github.com/Sergeyir/HardProcessesLO/plugins/writer/root"
	wsqlite "github.com/Sergeyir/HardProcessesLO/plugins/writer/sqlite"
	wyaml "github.com/Sergeyir/HardProcessesLO/plugins/writer/yaml"
	wyoda "github.com/Sergeyir/HardProcessesLO/plugins/writer/yoda"
)

// LHAGrid is the factory for PDF sets read from LHAPDF grid files.
const LHAGrid = "lhagrid"

// strictUnmarshal rejects unknown fields; empty input keeps the zero value.
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", contract.ErrConfig, err)
	}
	return nil
}

type NewPDF func(raw json.RawMessage) (contract.PDF, error)

type NewWriter func(raw json.RawMessage) (contract.HistogramWriter, error)

func toySet(raw json.RawMessage) (contract.PDF, error) {
	var opts toy.Options
	if err := strictUnmarshal(raw, &opts); err != nil {
		return nil, err
	}
	return toy.New(&opts), nil
}

// PDF factories. The toy parametrisation answers to two names.
var PDF = map[string]NewPDF{
	"test-set": toySet,
	"lhtoy":    toySet,
	LHAGrid: func(raw json.RawMessage) (contract.PDF, error) {
		var opts lhagrid.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return lhagrid.New(&opts)
	},
}

// Writer factories, one per output format.
var Writer = map[string]NewWriter{
	"root": func(raw json.RawMessage) (contract.HistogramWriter, error) {
		var opts wroot.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wroot.New(&opts)
	},
	"yoda": func(raw json.RawMessage) (contract.HistogramWriter, error) {
		var opts wyoda.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wyoda.New(&opts)
	},
	"yaml": func(raw json.RawMessage) (contract.HistogramWriter, error) {
		var opts wyaml.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wyaml.New(&opts)
	},
	"plot": func(raw json.RawMessage) (contract.HistogramWriter, error) {
		var opts wplot.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wplot.New(&opts)
	},
	"sqlite": func(raw json.RawMessage) (contract.HistogramWriter, error) {
		var opts wsqlite.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wsqlite.New(&opts)
	},
}
