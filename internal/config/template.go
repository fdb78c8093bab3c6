package config

import (
	"gopkg.in/yaml.v3"
)

// DefaultTemplateConfig is a runnable configuration using the built-in
// toy PDF set at RHIC energy.
func DefaultTemplateConfig() Config {
	cfg := Defaults()
	cfg.PDFSet = "test-set"
	cfg.PTHatMin = 5
	cfg.AbsMaxY = 2
	cfg.Energy = 200
	cfg.FastjetR = 0.4
	cfg.Integration.Concurrency = 0
	return cfg
}

const templateHeader = `# hardlo input file
# Run: hardlo input.yaml <number of integration steps>
# Every key below energy is optional; HARDLO_<SECTION>_<KEY> overrides any of them.
`

// Template renders DefaultTemplateConfig as commented YAML.
func Template() ([]byte, error) {
	b, err := yaml.Marshal(DefaultTemplateConfig())
	if err != nil {
		return nil, err
	}
	return append([]byte(templateHeader), b...), nil
}
