package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ebjordi/dissentanling/internal/synth"
)

// envPrefix selects environment overrides; a double underscore separates
// nesting levels, so DISENTANGLE_SYNTH__NOISE sets synth.noise.
const envPrefix = "DISENTANGLE_"

// defaultConfigFile is read from the working directory when --config is not given.
const defaultConfigFile = "disentangle.yaml"

var errInvalidConfig = errors.New("invalid configuration")

// Config is the complete configuration of one diagnostic run.
//
// MaxVelocity bounds |v| in km/s for the disentangling shifter; 0 disables it.
type Config struct {
	Iterations  int          `koanf:"iterations"`
	Workers     int          `koanf:"workers"`
	Shifter     string       `koanf:"shifter"`
	Edge        string       `koanf:"edge"`
	MaxVelocity float64      `koanf:"max_velocity"`
	Output      string       `koanf:"output"`
	Verbose     bool         `koanf:"verbose"`
	Synth       synth.Config `koanf:"synth"`
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"iterations":   "iterations",
	"workers":      "workers",
	"shifter":      "shifter",
	"edge":         "edge",
	"max-velocity": "max_velocity",
	"output":       "output",
	"verbose":      "verbose",
	"epochs":       "synth.epochs",
	"samples":      "synth.samples",
	"noise":        "synth.noise",
	"seed":         "synth.seed",
	"log-uniform":  "synth.log_uniform",
}

func defaults() map[string]interface{} {
	s := synth.DefaultConfig()
	return map[string]interface{}{
		"iterations":   10,
		"workers":      1,
		"shifter":      "linear",
		"edge":         "undefined",
		"max_velocity": 0.0,
		"output":       "table",
		"verbose":      false,

		"synth.log_uniform":         s.LogUniform,
		"synth.lo":                  s.Lo,
		"synth.hi":                  s.Hi,
		"synth.samples":             s.Samples,
		"synth.epochs":              s.Epochs,
		"synth.orbit.gamma":         s.Orbit.Gamma,
		"synth.orbit.k1":            s.Orbit.K1,
		"synth.orbit.k2":            s.Orbit.K2,
		"synth.primary_continuum":   s.PrimaryContinuum,
		"synth.secondary_continuum": s.SecondaryContinuum,
		"synth.noise":               s.Noise,
		"synth.seed":                s.Seed,
	}
}

// loadConfig layers defaults, the YAML file, environment variables and
// explicitly set flags, in increasing order of precedence.
func loadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := cfgFile != ""
	if !explicit {
		cfgFile = defaultConfigFile
	}
	if _, err := os.Stat(cfgFile); err == nil {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, known := flagKeys[f.Name]
			if !f.Changed || !known {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	def := synth.DefaultConfig()
	if len(cfg.Synth.PrimaryLines) == 0 {
		cfg.Synth.PrimaryLines = def.PrimaryLines
	}
	if len(cfg.Synth.SecondaryLines) == 0 {
		cfg.Synth.SecondaryLines = def.SecondaryLines
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Iterations < 0 {
		return fmt.Errorf("%w: iterations must be >= 0, got %d", errInvalidConfig, c.Iterations)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", errInvalidConfig, c.Workers)
	}
	if c.MaxVelocity < 0 {
		return fmt.Errorf("%w: max_velocity must be >= 0, got %v", errInvalidConfig, c.MaxVelocity)
	}
	switch c.Shifter {
	case "linear", "hermite":
	case "fourier":
		if !c.Synth.LogUniform {
			return fmt.Errorf("%w: the fourier shifter needs synth.log_uniform", errInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown shifter %q (linear|hermite|fourier)", errInvalidConfig, c.Shifter)
	}
	switch c.Edge {
	case "undefined", "firstlast":
	default:
		return fmt.Errorf("%w: unknown edge mode %q (undefined|firstlast)", errInvalidConfig, c.Edge)
	}
	switch c.Output {
	case "table", "markdown", "csv":
	default:
		return fmt.Errorf("%w: unknown output %q (table|markdown|csv)", errInvalidConfig, c.Output)
	}

	return nil
}
