package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
)

// EnvPrefix: HARDLO_INTEGRATION_SEED overrides integration.seed, and so on.
const EnvPrefix = "HARDLO"

// required keys have no default and must come from the file or environment.
var required = []string{"pdfset", "pthatmin", "abs_max_y", "energy"}

// Defaults returns every optional key at its default value.
func Defaults() Config {
	return Config{
		AlphasMZ:    0.118,
		Units:       "gev",
		Histogram:   Histogram{},
		DeltaY:      DeltaY{Bins: 40},
		Integration: Integration{ErrorModel: "legacy"},
		Output:      Output{Dir: "output", Name: "analytic", Formats: []string{"root", "yaml"}},
		Logging:     Logging{Level: "info", Dir: "logs"},
	}
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("fastjet_r", d.FastjetR)
	v.SetDefault("pdf_path", d.PDFPath)
	v.SetDefault("alphas_mz", d.AlphasMZ)
	v.SetDefault("units", d.Units)
	v.SetDefault("histogram.bins", d.Histogram.Bins)
	v.SetDefault("histogram.pt_min", d.Histogram.PTMin)
	v.SetDefault("histogram.pt_max", d.Histogram.PTMax)
	v.SetDefault("histogram.skip_below_pthatmin", d.Histogram.SkipBelowPTHatMin)
	v.SetDefault("deltay.enabled", d.DeltaY.Enabled)
	v.SetDefault("deltay.bins", d.DeltaY.Bins)
	v.SetDefault("deltay.decay_scale", d.DeltaY.DecayScale)
	v.SetDefault("integration.seed", d.Integration.Seed)
	v.SetDefault("integration.concurrency", d.Integration.Concurrency)
	v.SetDefault("integration.error_model", d.Integration.ErrorModel)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.name", d.Output.Name)
	v.SetDefault("output.formats", d.Output.Formats)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.dir", d.Logging.Dir)
	v.SetDefault("metrics.file", d.Metrics.File)
	// no default, but registered so that HARDLO_PDFSET etc. are seen
	for _, k := range required {
		_ = v.BindEnv(k)
	}
}

// Load reads a YAML file, overlays HARDLO_* environment variables and
// decodes strictly. Errors wrap contract.ErrConfig; fs.ErrNotExist is kept
// in the chain for a missing file.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Defaults())

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %w", contract.ErrConfig, err)
		}
		return Config{}, fmt.Errorf("%w: read %s: %v", contract.ErrConfig, path, err)
	}
	var missing []string
	for _, k := range required {
		if !v.IsSet(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s: missing %s", contract.ErrConfig, path, strings.Join(missing, ", "))
	}
	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", contract.ErrConfig, path, err)
	}
	return cfg, nil
}

// LoadDotEnv exports the KEY=VALUE pairs of a dotenv file into the process
// environment. Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	// viper lowercases keys
	for _, k := range v.AllKeys() {
		name := strings.ToUpper(k)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, v.GetString(k)); err != nil {
			return err
		}
	}
	return nil
}

// Merge applies CLI overrides on top of cfg (flags win over file and env).
func Merge(cfg Config, o Overrides) Config {
	out := cfg
	if o.Seed != nil {
		out.Integration.Seed = *o.Seed
	}
	if o.Concurrency != nil {
		out.Integration.Concurrency = *o.Concurrency
	}
	if s := strings.TrimSpace(o.OutputDir); s != "" {
		out.Output.Dir = s
	}
	if len(o.Formats) > 0 {
		out.Output.Formats = splitFormats(o.Formats)
	}
	if s := strings.TrimSpace(o.ErrorModel); s != "" {
		out.Integration.ErrorModel = s
	}
	if o.DeltaY != nil {
		out.DeltaY.Enabled = *o.DeltaY
	}
	if s := strings.TrimSpace(o.LogLevel); s != "" {
		out.Logging.Level = s
	}
	if s := strings.TrimSpace(o.MetricsFile); s != "" {
		out.Metrics.File = s
	}
	return out
}

// splitFormats accepts both repeated flags and comma lists.
func splitFormats(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if t := strings.ToLower(strings.TrimSpace(p)); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
