package interp

import (
	"math"
	"sort"
)

// Mode selects an interpolation kernel.
type Mode int

const (
	// Linear interpolates between the two bracketing samples.
	Linear Mode = iota
	// Hermite uses the bracketing samples and one neighbour on each side.
	Hermite
)

// String returns the lowercase kernel name.
func (m Mode) String() string {
	switch m {
	case Linear:
		return "linear"
	case Hermite:
		return "hermite"
	default:
		return "unknown"
	}
}

// Linear2 interpolates from x0 to x1 at fraction t in [0,1].
func Linear2(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*t+c2)*t+c1)*t + c0
}

// Locate finds x on the strictly increasing axis.
//
// It returns the index i of the left sample of the bracketing interval and
// the fraction t in [0,1) of x within [axis[i], axis[i+1]]. An exact hit on
// a sample returns that sample's index with t == 0, including the last one.
// ok is false when x lies outside [axis[0], axis[len-1]].
func Locate(axis []float64, x float64) (i int, t float64, ok bool) {
	n := len(axis)
	if n == 0 || math.IsNaN(x) || x < axis[0] || x > axis[n-1] {
		return 0, 0, false
	}

	j := sort.SearchFloat64s(axis, x)
	if axis[j] == x {
		return j, 0, true
	}

	i = j - 1
	t = (x - axis[i]) / (axis[j] - axis[i])

	return i, t, true
}

// At interpolates samples (aligned to axis) at position x.
//
// Exact hits return the stored sample. Outside the axis coverage the result
// is NaN. Hermite falls back to linear in the first and last interval, where
// one neighbour is missing. Undefined neighbours propagate into the result.
func At(axis, samples []float64, x float64, mode Mode) float64 {
	i, t, ok := Locate(axis, x)
	if !ok {
		return math.NaN()
	}
	if t == 0 {
		return samples[i]
	}

	if mode == Hermite && i > 0 && i+2 < len(samples) {
		return Hermite4(t, samples[i-1], samples[i], samples[i+1], samples[i+2])
	}

	return Linear2(t, samples[i], samples[i+1])
}
