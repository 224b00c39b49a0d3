package core

import "math"

const defaultEpsilon = 1e-12

// SpeedOfLight is the speed of light in km/s. Velocities throughout the
// module are expressed in km/s.
const SpeedOfLight = 299792.458

// DopplerFactor returns the non-relativistic wavelength scale 1 + v/c.
func DopplerFactor(velocity float64) float64 {
	return 1 + velocity/SpeedOfLight
}

// Undefined returns the value used to mark a sample with no valid data.
func Undefined() float64 {
	return math.NaN()
}

// IsDefined reports whether x carries data.
func IsDefined(x float64) bool {
	return !math.IsNaN(x)
}

// CountDefined returns the number of defined samples in x.
func CountDefined(x []float64) int {
	n := 0
	for _, v := range x {
		if !math.IsNaN(v) {
			n++
		}
	}

	return n
}

// DefinedRange returns the indices of the first and last defined samples in
// x. ok is false when no sample is defined.
func DefinedRange(x []float64) (first, last int, ok bool) {
	first, last = -1, -1
	for i, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return 0, 0, false
	}

	return first, last, true
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// SameOrBothUndefined is NearlyEqual extended to treat two undefined values
// as equal.
func SameOrBothUndefined(a, b, eps float64) bool {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	if an || bn {
		return an && bn
	}

	return NearlyEqual(a, b, eps)
}
