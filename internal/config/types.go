package config

// Config is read once per run and never mutated afterwards.
// Keys are snake_case YAML; unknown keys fail the load.
type Config struct {
	PDFSet   string  `mapstructure:"pdfset" yaml:"pdfset"`
	PTHatMin float64 `mapstructure:"pthatmin" yaml:"pthatmin"`
	AbsMaxY  float64 `mapstructure:"abs_max_y" yaml:"abs_max_y"`
	// Energy is √s_NN in GeV.
	Energy float64 `mapstructure:"energy" yaml:"energy"`
	// FastjetR is the jet radius of the event generator; accepted and ignored here.
	FastjetR float64 `mapstructure:"fastjet_r" yaml:"fastjet_r"`
	// PDFPath is searched for LHAPDF sets before LHAPDF_DATA_PATH.
	PDFPath string `mapstructure:"pdf_path" yaml:"pdf_path"`
	// AlphasMZ configures the built-in toy sets.
	AlphasMZ float64 `mapstructure:"alphas_mz" yaml:"alphas_mz"`
	Units    string  `mapstructure:"units" yaml:"units"`

	Histogram   Histogram   `mapstructure:"histogram" yaml:"histogram"`
	DeltaY      DeltaY      `mapstructure:"deltay" yaml:"deltay"`
	Integration Integration `mapstructure:"integration" yaml:"integration"`
	Output      Output      `mapstructure:"output" yaml:"output"`
	Logging     Logging     `mapstructure:"logging" yaml:"logging"`
	Metrics     Metrics     `mapstructure:"metrics" yaml:"metrics"`
}

// Histogram controls the p_T binning. Zero Bins or PTMax derive from pthatmin.
type Histogram struct {
	Bins              int     `mapstructure:"bins" yaml:"bins"`
	PTMin             float64 `mapstructure:"pt_min" yaml:"pt_min"`
	PTMax             float64 `mapstructure:"pt_max" yaml:"pt_max"`
	SkipBelowPTHatMin bool    `mapstructure:"skip_below_pthatmin" yaml:"skip_below_pthatmin"`
}

type DeltaY struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Bins       int     `mapstructure:"bins" yaml:"bins"`
	DecayScale float64 `mapstructure:"decay_scale" yaml:"decay_scale"`
}

type Integration struct {
	// Seed 0 derives one from the clock.
	Seed uint64 `mapstructure:"seed" yaml:"seed"`
	// Concurrency 0 means one worker per CPU.
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
	ErrorModel  string `mapstructure:"error_model" yaml:"error_model"`
}

type Output struct {
	Dir     string   `mapstructure:"dir" yaml:"dir"`
	Name    string   `mapstructure:"name" yaml:"name"`
	Formats []string `mapstructure:"formats" yaml:"formats"`
}

type Logging struct {
	Level string `mapstructure:"level" yaml:"level"`
	Dir   string `mapstructure:"dir" yaml:"dir"`
}

type Metrics struct {
	// File receives a node-exporter textfile after the run; empty disables it.
	File string `mapstructure:"file" yaml:"file"`
}

// Overrides carries CLI flags; nil or empty fields leave the config alone.
type Overrides struct {
	Seed        *uint64
	Concurrency *int
	OutputDir   string
	Formats     []string
	ErrorModel  string
	DeltaY      *bool
	LogLevel    string
	MetricsFile string
}
