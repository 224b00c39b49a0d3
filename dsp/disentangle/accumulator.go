package disentangle

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/ebjordi/dissentanling/dsp/core"
)

// accumulator averages spectra position by position over defined samples only.
type accumulator struct {
	sum    []float64
	count  []float64
	values []float64
	mask   []float64
}

func newAccumulator(n int) *accumulator {
	return &accumulator{
		sum:    make([]float64, n),
		count:  make([]float64, n),
		values: make([]float64, n),
		mask:   make([]float64, n),
	}
}

// add folds x into the running sums. len(x) must equal the accumulator length.
func (a *accumulator) add(x []float64) {
	core.SplitDefined(a.values, a.mask, x)
	vecmath.AddBlockInPlace(a.sum, a.values)
	vecmath.AddBlockInPlace(a.count, a.mask)
}

// mean returns sum/count per position; positions with count 0 are NaN.
func (a *accumulator) mean() []float64 {
	out := make([]float64, len(a.sum))
	for j, n := range a.count {
		if n == 0 {
			out[j] = core.Undefined()
			continue
		}
		out[j] = a.sum[j] / n
	}

	return out
}
