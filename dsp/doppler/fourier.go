package doppler

import (
	"fmt"
	"math"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/ebjordi/dissentanling/dsp/core"
)

// positionTolerance absorbs rounding in the source position of a sample so
// that whole-sample shifts keep their end points.
const positionTolerance = 1e-9

// Fourier shifts spectra sampled on a log-uniform axis by applying a linear
// phase ramp to their spectrum. On such an axis a Doppler shift is a
// translation by ln(1+v/c)/Δlnλ samples for every wavelength.
//
// The straight line through the first and last defined samples is removed
// before the transform and added back at the source position afterwards, so
// sloped continua do not ring against the zero padding. The detrended flux
// is padded to at least twice its length, so the shifted data does not wrap
// around. Undefined input samples are replaced by the trend; any output
// sample that depends on an undefined input is undefined again.
//
// A Fourier shifter is bound to the length and step of the axis it was
// created for. It is safe for concurrent use: each call borrows its own FFT
// plan and scratch buffer from an internal pool.
type Fourier struct {
	n      int
	lnStep float64
	size   int
	edge   EdgeMode
	maxV   float64
	pool   sync.Pool
}

type fourierWork struct {
	plan *algofft.Plan[complex128]
	buf  []complex128
}

// NewFourier returns a Fourier shifter for the given log-uniform axis.
func NewFourier(axis []float64, opts ...Option) (*Fourier, error) {
	cfg := applyOptions(opts)

	lnStep, err := LogStep(axis, cfg.logTolerance)
	if err != nil {
		return nil, err
	}

	f := &Fourier{
		n:      len(axis),
		lnStep: lnStep,
		size:   nextPowerOf2(2 * len(axis)),
		edge:   cfg.edge,
		maxV:   cfg.maxVelocity,
	}

	// Build the first plan eagerly so construction reports FFT errors.
	w, err := f.newWork()
	if err != nil {
		return nil, err
	}
	f.pool.Put(w)

	return f, nil
}

// LogStep returns the logarithmic step of the axis the shifter was built for.
func (f *Fourier) LogStep() float64 { return f.lnStep }

// Edge returns the edge mode in use.
func (f *Fourier) Edge() EdgeMode { return f.edge }

// FFTSize returns the padded transform length.
func (f *Fourier) FFTSize() int { return f.size }

// Shift returns flux as observed with radial velocity v (km/s).
func (f *Fourier) Shift(axis, flux []float64, v float64) ([]float64, error) {
	if err := checkShiftArgs(axis, flux, v, f.maxV); err != nil {
		return nil, err
	}
	if len(axis) != f.n {
		return nil, fmt.Errorf("%w: shifter built for %d samples, axis has %d", ErrLengthMismatch, f.n, len(axis))
	}

	out := make([]float64, f.n)

	tr, ok := endpointTrend(flux)
	if !ok {
		core.Fill(out, core.Undefined())
		return out, nil
	}

	shift := math.Log(core.DopplerFactor(v)) / f.lnStep

	w, err := f.getWork()
	if err != nil {
		return nil, err
	}
	defer f.pool.Put(w)

	for i := range w.buf {
		w.buf[i] = 0
	}
	for i, x := range flux {
		if core.IsDefined(x) {
			w.buf[i] = complex(x-tr.at(float64(i)), 0)
		}
	}

	if err := w.plan.Forward(w.buf, w.buf); err != nil {
		return nil, fmt.Errorf("doppler: forward FFT failed: %w", err)
	}

	applyPhaseRamp(w.buf, shift)

	if err := w.plan.Inverse(w.buf, w.buf); err != nil {
		return nil, fmt.Errorf("doppler: inverse FFT failed: %w", err)
	}

	last := float64(f.n - 1)
	for j := range out {
		p := float64(j) - shift
		switch {
		case p < -positionTolerance:
			out[j] = edgeValue(flux, true, f.edge)
		case p > last+positionTolerance:
			out[j] = edgeValue(flux, false, f.edge)
		case !sourceDefined(flux, p):
			out[j] = core.Undefined()
		default:
			// The trend moves with the data, so it is evaluated at the source position.
			out[j] = real(w.buf[j]) + tr.at(p)
		}
	}

	return out, nil
}

// trend is the straight line through the first and last defined samples.
// Removing it leaves data that starts and ends near zero, so zero padding
// adds no step for the phase ramp to ring on.
type trend struct {
	origin, slope float64
}

func (tr trend) at(p float64) float64 {
	return tr.origin + tr.slope*p
}

// endpointTrend returns the trend of flux; ok is false when no sample is defined.
func endpointTrend(flux []float64) (trend, bool) {
	first, last, ok := core.DefinedRange(flux)
	if !ok {
		return trend{}, false
	}
	if first == last {
		return trend{origin: flux[first]}, true
	}

	slope := (flux[last] - flux[first]) / float64(last-first)

	return trend{origin: flux[first] - slope*float64(first), slope: slope}, true
}

// applyPhaseRamp delays the signal held in spec by shift samples.
func applyPhaseRamp(spec []complex128, shift float64) {
	n := len(spec)
	half := n / 2

	for k := range spec {
		freq := k
		if k > half {
			freq = k - n
		}

		phase := -2 * math.Pi * float64(freq) * shift / float64(n)
		if k == half {
			// The Nyquist bin has no conjugate partner; keep the output real.
			spec[k] *= complex(math.Cos(phase), 0)
			continue
		}

		spec[k] *= complex(math.Cos(phase), math.Sin(phase))
	}
}

// sourceDefined reports whether both input samples bracketing position p are defined.
func sourceDefined(flux []float64, p float64) bool {
	last := len(flux) - 1
	lo := clampIndex(int(math.Floor(p+positionTolerance)), last)
	hi := clampIndex(int(math.Ceil(p-positionTolerance)), last)

	return core.IsDefined(flux[lo]) && core.IsDefined(flux[hi])
}

func clampIndex(i, last int) int {
	if i < 0 {
		return 0
	}
	if i > last {
		return last
	}

	return i
}

func (f *Fourier) getWork() (*fourierWork, error) {
	if w, ok := f.pool.Get().(*fourierWork); ok {
		return w, nil
	}

	return f.newWork()
}

func (f *Fourier) newWork() (*fourierWork, error) {
	plan, err := algofft.NewPlan64(f.size)
	if err != nil {
		return nil, fmt.Errorf("doppler: failed to create FFT plan: %w", err)
	}

	return &fourierWork{
		plan: plan,
		buf:  make([]complex128, f.size),
	}, nil
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
