package config

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/Sergeyir/HardProcessesLO/internal/mc"
	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "input.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

const minimal = "pdfset: test-set\npthatmin: 5\nabs_max_y: 2\nenergy: 200\n"

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeFile(t, minimal))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Defaults()
	want.PDFSet, want.PTHatMin, want.AbsMaxY, want.Energy = "test-set", 5, 2, 200
	if d := cmp.Diff(want, cfg); d != "" {
		t.Fatalf("config (-want +got):\n%s", d)
	}
}

func TestLoadNested(t *testing.T) {
	body := minimal + `histogram:
  bins: 10
  pt_max: 50
deltay:
  enabled: true
integration:
  seed: 12
  error_model: variance
output:
  formats: [yoda, sqlite]
`
	cfg, err := Load(writeFile(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Histogram.Bins != 10 || cfg.Histogram.PTMax != 50 || !cfg.DeltaY.Enabled || cfg.DeltaY.Bins != 40 {
		t.Fatalf("nested values: %+v", cfg)
	}
	if cfg.Integration.Seed != 12 || cfg.Integration.ErrorModel != "variance" {
		t.Fatalf("integration: %+v", cfg.Integration)
	}
	if d := cmp.Diff([]string{"yoda", "sqlite"}, cfg.Output.Formats); d != "" {
		t.Fatalf("formats:\n%s", d)
	}
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("HARDLO_INTEGRATION_SEED", "99")
	t.Setenv("HARDLO_ENERGY", "510")
	cfg, err := Load(writeFile(t, minimal))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Integration.Seed != 99 || cfg.Energy != 510 {
		t.Fatalf("env overlay ignored: seed=%d energy=%g", cfg.Integration.Seed, cfg.Energy)
	}
}

func TestLoadRequiredFromEnv(t *testing.T) {
	t.Setenv("HARDLO_PDFSET", "lhtoy")
	cfg, err := Load(writeFile(t, "pthatmin: 1\nabs_max_y: 1\nenergy: 100\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PDFSet != "lhtoy" {
		t.Fatalf("pdfset %q", cfg.PDFSet)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, contract.ErrConfig) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing file: %v", err)
	}
	_, err = Load(writeFile(t, minimal+"bogus: 1\n"))
	if !errors.Is(err, contract.ErrConfig) {
		t.Fatalf("unknown key: %v", err)
	}
	_, err = Load(writeFile(t, "pdfset: test-set\nenergy: 200\n"))
	if !errors.Is(err, contract.ErrConfig) || !strings.Contains(err.Error(), "pthatmin") || !strings.Contains(err.Error(), "abs_max_y") {
		t.Fatalf("missing keys: %v", err)
	}
	_, err = Load(writeFile(t, "pdfset: [unclosed\n"))
	if !errors.Is(err, contract.ErrConfig) {
		t.Fatalf("bad yaml: %v", err)
	}
}

func TestMerge(t *testing.T) {
	seed, workers, dy := uint64(3), 8, true
	got := Merge(Defaults(), Overrides{
		Seed: &seed, Concurrency: &workers, DeltaY: &dy,
		OutputDir: " out ", Formats: []string{"ROOT,yoda", "plot"},
		ErrorModel: "variance", LogLevel: "debug", MetricsFile: "m.prom",
	})
	want := Defaults()
	want.Integration = Integration{Seed: 3, Concurrency: 8, ErrorModel: "variance"}
	want.DeltaY.Enabled = true
	want.Output.Dir = "out"
	want.Output.Formats = []string{"root", "yoda", "plot"}
	want.Logging.Level = "debug"
	want.Metrics.File = "m.prom"
	if d := cmp.Diff(want, got); d != "" {
		t.Fatalf("merge (-want +got):\n%s", d)
	}
	if d := cmp.Diff(Defaults(), Merge(Defaults(), Overrides{})); d != "" {
		t.Fatalf("empty overrides changed config:\n%s", d)
	}
}

func valid() Config {
	c := DefaultTemplateConfig()
	c.Output.Dir = "out"
	return c
}

func TestValidate(t *testing.T) {
	if err := Validate(valid()); err != nil {
		t.Fatalf("template invalid: %v", err)
	}
	cases := map[string]func(*Config){
		"pdfset":       func(c *Config) { c.PDFSet = " " },
		"pthatmin":     func(c *Config) { c.PTHatMin = -1 },
		"abs_max_y":    func(c *Config) { c.AbsMaxY = -0.5 },
		"energy":       func(c *Config) { c.Energy = 0 },
		"alphas":       func(c *Config) { c.AlphasMZ = 1.2 },
		"units":        func(c *Config) { c.Units = "mb" },
		"bins":         func(c *Config) { c.Histogram.Bins = -1 },
		"pt range":     func(c *Config) { c.Histogram.PTMin, c.Histogram.PTMax = 10, 5 },
		"pt default":   func(c *Config) { c.Histogram.PTMin = 200 },
		"dy bins":      func(c *Config) { c.DeltaY.Enabled, c.DeltaY.Bins = true, 0 },
		"dy pthatmin":  func(c *Config) { c.DeltaY.Enabled, c.PTHatMin = true, 0 },
		"concurrency":  func(c *Config) { c.Integration.Concurrency = -2 },
		"seed range":   func(c *Config) { c.Integration.Seed = math.MaxInt64 + 1 },
		"error model":  func(c *Config) { c.Integration.ErrorModel = "bootstrap" },
		"output dir":   func(c *Config) { c.Output.Dir = "" },
		"output name":  func(c *Config) { c.Output.Name = "a/b" },
		"format":       func(c *Config) { c.Output.Formats = []string{"csv"} },
		"format twice": func(c *Config) { c.Output.Formats = []string{"yaml", "yaml"} },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mut(&c)
			if err := Validate(c); !errors.Is(err, contract.ErrConfig) {
				t.Fatalf("want ErrConfig, got %v", err)
			}
		})
	}
}

func TestBinning(t *testing.T) {
	c := valid()
	c.PTHatMin = 5.7
	bins, lo, hi := Binning(c)
	if bins != 1005 || lo != 0 || math.Abs(hi-105.7) > 1e-12 {
		t.Fatalf("defaults: %d [%g,%g]", bins, lo, hi)
	}
	c.Histogram = Histogram{Bins: 10, PTMin: 2, PTMax: 30}
	if bins, lo, hi = Binning(c); bins != 10 || lo != 2 || hi != 30 {
		t.Fatalf("explicit: %d [%g,%g]", bins, lo, hi)
	}
}

func TestPDFRaw(t *testing.T) {
	c := valid()
	name, raw, err := PDFRaw(c)
	if err != nil || name != "test-set" || !strings.Contains(string(raw), `"alphas_mz":0.118`) {
		t.Fatalf("toy: %s %s %v", name, raw, err)
	}
	c.PDFSet, c.PDFPath = "CT18NLO", "/data/pdfs"
	name, raw, err = PDFRaw(c)
	if err != nil || name != "lhagrid" || !strings.Contains(string(raw), `"set":"CT18NLO"`) || !strings.Contains(string(raw), "/data/pdfs") {
		t.Fatalf("grid: %s %s %v", name, raw, err)
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	b, err := Template()
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if !strings.HasPrefix(string(b), "# hardlo input file") {
		t.Fatalf("header missing")
	}
	var parsed map[string]any
	if err := yaml.Unmarshal(b, &parsed); err != nil {
		t.Fatalf("template is not yaml: %v", err)
	}
	cfg, err := Load(writeFile(t, string(b)))
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if d := cmp.Diff(DefaultTemplateConfig(), cfg); d != "" {
		t.Fatalf("round trip (-want +got):\n%s", d)
	}
}

func TestAssemble(t *testing.T) {
	c := valid()
	c.Output.Dir = t.TempDir()
	c.Output.Formats = []string{"yaml", "root"}
	c.Integration.Seed = 5
	c.Integration.ErrorModel = "variance"
	c.Units = "PB"
	comp, set, err := Assemble(c)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if comp.PDF == nil || len(comp.Outputs) != 2 || comp.Outputs[0].Format != "yaml" || comp.Outputs[1].Format != "root" {
		t.Fatalf("components: %+v", comp)
	}
	if set.Seed != 5 || set.Concurrency <= 0 || set.ErrorModel != mc.Variance || set.Units != "pb" {
		t.Fatalf("settings: %+v", set)
	}
	if set.Bins != 1005 || set.PTMax != 105 || set.SqrtS != 200 || set.AbsMaxY != 2 {
		t.Fatalf("binning: %+v", set)
	}
	if set.Samples != 0 {
		t.Fatalf("samples are set by the caller")
	}

	c.Integration.Seed = 0
	if _, set, err = Assemble(c); err != nil || set.Seed == 0 {
		t.Fatalf("clock seed: %d %v", set.Seed, err)
	}

	c.PDFSet = "no-such-set"
	c.PDFPath = t.TempDir()
	if _, _, err := Assemble(c); !errors.Is(err, contract.ErrPDFSetNotFound) {
		t.Fatalf("missing set: %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), ".env")
	body := "# comment\nHARDLO_DOTENV_A=\"quoted\"\nHARDLO_DOTENV_B=plain\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HARDLO_DOTENV_A", "")
	os.Unsetenv("HARDLO_DOTENV_A")
	t.Setenv("HARDLO_DOTENV_B", "kept")

	if err := LoadDotEnv(p); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("HARDLO_DOTENV_A"); got != "quoted" {
		t.Fatalf("A = %q", got)
	}
	if got := os.Getenv("HARDLO_DOTENV_B"); got != "kept" {
		t.Fatalf("B = %q, set variables must win", got)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file: %v", err)
	}
}
