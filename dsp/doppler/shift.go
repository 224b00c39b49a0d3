package doppler

import (
	"github.com/ebjordi/dissentanling/dsp/core"
	"github.com/ebjordi/dissentanling/dsp/interp"
)

// Interpolating shifts spectra by resampling them with an interpolation
// kernel. It is stateless and safe for concurrent use.
type Interpolating struct {
	mode        interp.Mode
	edge        EdgeMode
	maxVelocity float64
}

var defaultShifter = New()

// New returns an interpolating shifter. The default uses linear
// interpolation and marks uncovered samples as NaN.
func New(opts ...Option) *Interpolating {
	cfg := applyOptions(opts)
	return &Interpolating{mode: cfg.mode, edge: cfg.edge, maxVelocity: cfg.maxVelocity}
}

// Mode returns the interpolation kernel in use.
func (s *Interpolating) Mode() interp.Mode { return s.mode }

// Edge returns the edge mode in use.
func (s *Interpolating) Edge() EdgeMode { return s.edge }

// Shift returns flux as observed with radial velocity v (km/s).
//
// Output sample j is the input interpolated at axis[j]/(1+v/c). The axis
// must be strictly increasing; samples that coincide with an axis point are
// copied exactly, so a zero velocity returns an identical copy.
func (s *Interpolating) Shift(axis, flux []float64, v float64) ([]float64, error) {
	if err := checkShiftArgs(axis, flux, v, s.maxVelocity); err != nil {
		return nil, err
	}
	if err := ValidateAxis(axis); err != nil {
		return nil, err
	}

	factor := core.DopplerFactor(v)
	lo, hi := axis[0], axis[len(axis)-1]
	out := make([]float64, len(flux))

	for j, lambda := range axis {
		src := lambda / factor
		switch {
		case src < lo:
			out[j] = edgeValue(flux, true, s.edge)
		case src > hi:
			out[j] = edgeValue(flux, false, s.edge)
		default:
			out[j] = interp.At(axis, flux, src, s.mode)
		}
	}

	return out, nil
}

// Shift shifts flux with the default interpolating shifter.
func Shift(axis, flux []float64, v float64) ([]float64, error) {
	return defaultShifter.Shift(axis, flux, v)
}
