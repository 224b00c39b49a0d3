package disentangle

import (
	"math"

	"github.com/ebjordi/dissentanling/dsp/core"
)

// Coverage returns the number of defined samples in a template.
func Coverage(template []float64) int {
	return core.CountDefined(template)
}

// RMSDiff returns the root-mean-square difference of a and b over the
// positions defined in both, and the number of such positions. The result
// is NaN when the slices differ in length or share no defined position.
func RMSDiff(a, b []float64) (float64, int) {
	if len(a) != len(b) {
		return math.NaN(), 0
	}

	sum := 0.0
	n := 0
	for i := range a {
		if !core.IsDefined(a[i]) || !core.IsDefined(b[i]) {
			continue
		}
		d := a[i] - b[i]
		sum += d * d
		n++
	}

	if n == 0 {
		return math.NaN(), 0
	}

	return math.Sqrt(sum / float64(n)), n
}

// OffsetRMS compares a recovered template with a reference when the
// continuum split between the two stars is unknown. It returns the mean of
// a-b over positions defined in both, the RMS of a-b around that mean, and
// the number of positions used. Both results are NaN when no position is
// usable.
func OffsetRMS(a, b []float64) (offset, rms float64, n int) {
	if len(a) != len(b) {
		return math.NaN(), math.NaN(), 0
	}

	for i := range a {
		if core.IsDefined(a[i]) && core.IsDefined(b[i]) {
			offset += a[i] - b[i]
			n++
		}
	}
	if n == 0 {
		return math.NaN(), math.NaN(), 0
	}
	offset /= float64(n)

	for i := range a {
		if core.IsDefined(a[i]) && core.IsDefined(b[i]) {
			d := a[i] - b[i] - offset
			rms += d * d
		}
	}

	return offset, math.Sqrt(rms / float64(n)), n
}
