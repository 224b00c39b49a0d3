package synth

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/ebjordi/dissentanling/dsp/doppler"
)

// Config describes a synthetic binary and its observing campaign.
type Config struct {
	// LogUniform samples the axis with a constant wavelength ratio instead
	// of a constant step.
	LogUniform bool    `koanf:"log_uniform"`
	Lo         float64 `koanf:"lo"`
	Hi         float64 `koanf:"hi"`
	Samples    int     `koanf:"samples"`
	Epochs     int     `koanf:"epochs"`

	Orbit Orbit `koanf:"orbit"`

	PrimaryContinuum   float64 `koanf:"primary_continuum"`
	SecondaryContinuum float64 `koanf:"secondary_continuum"`
	PrimaryLines       []Line  `koanf:"primary_lines"`
	SecondaryLines     []Line  `koanf:"secondary_lines"`

	// Noise is the peak amplitude of uniform noise added to each observation.
	Noise float64 `koanf:"noise"`
	Seed  int64   `koanf:"seed"`
}

// DefaultConfig returns a well-separated binary in a 50 Å window at 5000 Å.
func DefaultConfig() Config {
	return Config{
		Lo:      5000,
		Hi:      5050,
		Samples: 1001,
		Epochs:  12,
		Orbit:   Orbit{Gamma: 10, K1: 60, K2: 110},

		PrimaryContinuum:   1,
		SecondaryContinuum: 0.5,
		PrimaryLines: []Line{
			{Center: 5010, Sigma: 0.3, Depth: 0.5},
			{Center: 5022, Sigma: 0.2, Depth: 0.3},
			{Center: 5037, Sigma: 0.4, Depth: 0.6},
		},
		SecondaryLines: []Line{
			{Center: 5015, Sigma: 0.25, Depth: 0.4},
			{Center: 5028, Sigma: 0.3, Depth: 0.5},
			{Center: 5041, Sigma: 0.2, Depth: 0.3},
		},
		Seed: 1,
	}
}

// Binary is a generated system together with its observations.
type Binary struct {
	Axis       []float64
	Primary    []float64
	Secondary  []float64
	Phases     []float64
	VPrimary   []float64
	VSecondary []float64
	Spectra    [][]float64
}

// Generate builds the templates, velocities and composite observations
// described by cfg, shifting with s.
func Generate(cfg Config, s doppler.Shifter) (*Binary, error) {
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("%w: epochs = %d", ErrInvalidConfig, cfg.Epochs)
	}
	if s == nil {
		s = doppler.New()
	}

	build := doppler.LinearAxis
	if cfg.LogUniform {
		build = doppler.LogUniformAxis
	}
	axis, err := build(cfg.Lo, cfg.Hi, cfg.Samples)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	b := &Binary{
		Axis:      axis,
		Primary:   Template(axis, cfg.PrimaryContinuum, cfg.PrimaryLines),
		Secondary: Template(axis, cfg.SecondaryContinuum, cfg.SecondaryLines),
		Phases:    Phases(cfg.Epochs),
		Spectra:   make([][]float64, cfg.Epochs),
	}
	b.VPrimary, b.VSecondary = cfg.Orbit.Velocities(b.Phases)

	for i := range b.Spectra {
		obs, err := Composite(s, axis, b.Primary, b.Secondary, b.VPrimary[i], b.VSecondary[i])
		if err != nil {
			return nil, fmt.Errorf("synth: epoch %d: %w", i, err)
		}
		if cfg.Noise > 0 {
			vecmath.AddBlockInPlace(obs, DeterministicNoise(cfg.Seed+int64(i), cfg.Noise, len(obs)))
		}
		b.Spectra[i] = obs
	}

	return b, nil
}
