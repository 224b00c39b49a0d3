// Package synth builds deterministic synthetic double-lined binaries:
// Gaussian-line templates, circular-orbit velocity curves and the composite
// spectra an observer would record.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-vecmath"

	"github.com/ebjordi/dissentanling/dsp/doppler"
)

// ErrInvalidConfig indicates a Config that cannot produce a binary.
var ErrInvalidConfig = errors.New("synth: invalid config")

// Line is a Gaussian absorption line.
type Line struct {
	Center float64 `koanf:"center"`
	Sigma  float64 `koanf:"sigma"`
	Depth  float64 `koanf:"depth"`
}

// Template returns continuum minus the given lines, sampled on axis.
func Template(axis []float64, continuum float64, lines []Line) []float64 {
	out := make([]float64, len(axis))
	for i, x := range axis {
		v := continuum
		for _, l := range lines {
			d := (x - l.Center) / l.Sigma
			v -= l.Depth * math.Exp(-0.5*d*d)
		}
		out[i] = v
	}
	return out
}

// Orbit is a circular orbit seen edge-on enough to give semi-amplitudes
// K1 and K2 (km/s) around the systemic velocity Gamma.
type Orbit struct {
	Gamma float64 `koanf:"gamma"`
	K1    float64 `koanf:"k1"`
	K2    float64 `koanf:"k2"`
}

// Velocities returns the primary and secondary radial velocities at the
// given orbital phases.
func (o Orbit) Velocities(phases []float64) (primary, secondary []float64) {
	primary = make([]float64, len(phases))
	secondary = make([]float64, len(phases))
	for i, p := range phases {
		s := math.Sin(2 * math.Pi * p)
		primary[i] = o.Gamma + o.K1*s
		secondary[i] = o.Gamma - o.K2*s
	}
	return primary, secondary
}

// Phases returns n phases spread evenly over one orbit, offset by half a
// step so that no epoch falls on a conjunction.
func Phases(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = (float64(i) + 0.5) / float64(n)
	}
	return out
}

// Composite returns the sum of a shifted by v1 and b shifted by v2.
func Composite(s doppler.Shifter, axis, a, b []float64, v1, v2 float64) ([]float64, error) {
	sa, err := s.Shift(axis, a, v1)
	if err != nil {
		return nil, fmt.Errorf("synth: shift primary: %w", err)
	}
	sb, err := s.Shift(axis, b, v2)
	if err != nil {
		return nil, fmt.Errorf("synth: shift secondary: %w", err)
	}

	out := make([]float64, len(axis))
	vecmath.AddBlock(out, sa, sb)
	return out, nil
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}
