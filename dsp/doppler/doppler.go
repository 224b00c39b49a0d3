package doppler

import (
	"errors"
	"fmt"
	"math"

	"github.com/ebjordi/dissentanling/dsp/core"
)

var (
	// ErrEmptyAxis indicates a dispersion axis without samples.
	ErrEmptyAxis = errors.New("doppler: empty dispersion axis")
	// ErrAxisNotIncreasing indicates a dispersion axis that is not strictly increasing.
	ErrAxisNotIncreasing = errors.New("doppler: dispersion axis not strictly increasing")
	// ErrLengthMismatch indicates a flux array not aligned to the dispersion axis.
	ErrLengthMismatch = errors.New("doppler: flux length does not match axis")
	// ErrVelocity indicates a velocity that is not finite, folds the axis
	// (v <= -c) or exceeds the limit set with WithMaxVelocity.
	ErrVelocity = errors.New("doppler: invalid velocity")
	// ErrNotLogUniform indicates an axis without constant logarithmic step.
	ErrNotLogUniform = errors.New("doppler: axis is not log-uniform")
	// ErrInvalidRange indicates invalid arguments to an axis builder.
	ErrInvalidRange = errors.New("doppler: invalid axis range")
)

// Shifter resamples flux, aligned to axis, as observed with radial velocity
// v in km/s. Implementations return len(flux) values, never modify their
// inputs and mark samples without a valid source as NaN. The result may
// share storage with flux (an identity shift can return flux itself), so
// callers must not write into it.
type Shifter interface {
	Shift(axis, flux []float64, v float64) ([]float64, error)
}

// ShifterFunc adapts an ordinary function to the Shifter interface.
type ShifterFunc func(axis, flux []float64, v float64) ([]float64, error)

// Shift calls f(axis, flux, v).
func (f ShifterFunc) Shift(axis, flux []float64, v float64) ([]float64, error) {
	return f(axis, flux, v)
}

// EdgeMode controls the value of samples shifted in from outside the axis coverage.
type EdgeMode int

const (
	// EdgeUndefined marks uncovered samples as NaN.
	EdgeUndefined EdgeMode = iota
	// EdgeFirstLast repeats the first or last flux value.
	EdgeFirstLast
)

// String returns the lowercase edge mode name.
func (e EdgeMode) String() string {
	switch e {
	case EdgeUndefined:
		return "undefined"
	case EdgeFirstLast:
		return "firstlast"
	default:
		return "unknown"
	}
}

// ValidateAxis checks that axis is non-empty and strictly increasing.
func ValidateAxis(axis []float64) error {
	if len(axis) == 0 {
		return ErrEmptyAxis
	}
	for i := 1; i < len(axis); i++ {
		if !(axis[i] > axis[i-1]) {
			return fmt.Errorf("%w: axis[%d]=%v, axis[%d]=%v", ErrAxisNotIncreasing, i-1, axis[i-1], i, axis[i])
		}
	}

	return nil
}

func checkShiftArgs(axis, flux []float64, v, maxVelocity float64) error {
	if len(axis) == 0 {
		return ErrEmptyAxis
	}
	if len(flux) != len(axis) {
		return fmt.Errorf("%w: flux has %d samples, axis has %d", ErrLengthMismatch, len(flux), len(axis))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || core.DopplerFactor(v) <= 0 {
		return fmt.Errorf("%w: %v km/s", ErrVelocity, v)
	}
	if maxVelocity > 0 && math.Abs(v) > maxVelocity {
		return fmt.Errorf("%w: |%v| km/s exceeds limit %v km/s", ErrVelocity, v, maxVelocity)
	}

	return nil
}

// edgeValue returns the value for a sample whose source lies below (low) or
// above the axis coverage.
func edgeValue(flux []float64, low bool, mode EdgeMode) float64 {
	if mode != EdgeFirstLast {
		return core.Undefined()
	}
	if low {
		return flux[0]
	}

	return flux[len(flux)-1]
}
