package doppler

import (
	"fmt"
	"math"

	"github.com/ebjordi/dissentanling/dsp/core"
)

// LinearAxis returns n evenly spaced wavelengths from lo to hi inclusive.
func LinearAxis(lo, hi float64, n int) ([]float64, error) {
	if n < 2 || !(hi > lo) {
		return nil, fmt.Errorf("%w: lo=%v hi=%v n=%d", ErrInvalidRange, lo, hi, n)
	}

	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi

	return out, nil
}

// LogUniformAxis returns n wavelengths from lo to hi inclusive with a
// constant ratio between neighbours.
func LogUniformAxis(lo, hi float64, n int) ([]float64, error) {
	if n < 2 || lo <= 0 || !(hi > lo) {
		return nil, fmt.Errorf("%w: lo=%v hi=%v n=%d", ErrInvalidRange, lo, hi, n)
	}

	out := make([]float64, n)
	lnLo := math.Log(lo)
	step := (math.Log(hi) - lnLo) / float64(n-1)
	for i := range out {
		out[i] = math.Exp(lnLo + float64(i)*step)
	}
	out[0], out[n-1] = lo, hi

	return out, nil
}

// VelocityStep returns the velocity (km/s) that shifts a log-uniform axis
// with logarithmic step lnStep by exactly one sample.
func VelocityStep(lnStep float64) float64 {
	return (math.Exp(lnStep) - 1) * core.SpeedOfLight
}

// LogStep returns the constant ln(axis[i+1]/axis[i]) of a log-uniform axis.
// Every step must match the mean step within the relative tolerance tol
// (DefaultLogTolerance when tol <= 0).
func LogStep(axis []float64, tol float64) (float64, error) {
	if err := ValidateAxis(axis); err != nil {
		return 0, err
	}
	if len(axis) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 samples", ErrNotLogUniform)
	}
	if axis[0] <= 0 {
		return 0, fmt.Errorf("%w: non-positive wavelength %v", ErrNotLogUniform, axis[0])
	}
	if tol <= 0 {
		tol = DefaultLogTolerance
	}

	n := len(axis)
	mean := math.Log(axis[n-1]/axis[0]) / float64(n-1)
	for i := 1; i < n; i++ {
		step := math.Log(axis[i] / axis[i-1])
		if math.Abs(step-mean) > tol*mean {
			return 0, fmt.Errorf("%w: step %d is %v, mean %v", ErrNotLogUniform, i-1, step, mean)
		}
	}

	return mean, nil
}
