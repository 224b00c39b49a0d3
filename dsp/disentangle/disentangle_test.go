package disentangle

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/ebjordi/dissentanling/dsp/core"
	"github.com/ebjordi/dissentanling/dsp/doppler"
	"github.com/ebjordi/dissentanling/dsp/interp"
	"github.com/ebjordi/dissentanling/internal/synth"
	"github.com/ebjordi/dissentanling/internal/testutil"
)

// recordingShifter wraps the default shifter and records every velocity it is asked for.
type recordingShifter struct {
	mu         sync.Mutex
	velocities []float64
}

func (r *recordingShifter) Shift(axis, flux []float64, v float64) ([]float64, error) {
	r.mu.Lock()
	r.velocities = append(r.velocities, v)
	r.mu.Unlock()
	return doppler.Shift(axis, flux, v)
}

func (r *recordingShifter) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.velocities)
}

// identity returns its input slice unshifted.
var identity = doppler.ShifterFunc(func(_, flux []float64, _ float64) ([]float64, error) {
	return flux, nil
})

func generate(t *testing.T) *synth.Binary {
	t.Helper()
	b, err := synth.Generate(synth.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("synth.Generate() error = %v", err)
	}
	return b
}

func cloneAll(spectra [][]float64) [][]float64 {
	out := make([][]float64, len(spectra))
	for i, s := range spectra {
		out[i] = core.Clone(s)
	}
	return out
}

// must returns a function that unwraps a template result, failing t on error.
func must(t *testing.T) func([]float64, error) []float64 {
	t.Helper()
	return func(got []float64, err error) []float64 {
		t.Helper()
		if err != nil {
			t.Fatalf("template error = %v", err)
		}
		return got
	}
}

func TestInitialTemplateZeroVelocityIsMean(t *testing.T) {
	axis := []float64{0, 1, 2, 3, 4}
	spectra := [][]float64{
		{1, 2, 3, 4, 5},
		{3, 4, 5, 6, 7},
	}

	got := must(t)(InitialTemplate(axis, spectra, []float64{0, 0}))
	testutil.RequireSliceNearlyEqual(t, got, []float64{2, 3, 4, 5, 6}, 1e-12)
}

func TestInitialTemplateSkipsUndefinedSamples(t *testing.T) {
	nan := math.NaN()
	axis := []float64{0, 1, 2, 3, 4}
	spectra := [][]float64{
		{nan, 2, nan, 4, 5},
		{nan, 4, 5, nan, 7},
		{nan, 6, 8, nan, 9},
	}

	got := must(t)(InitialTemplate(axis, spectra, []float64{0, 0, 0}))
	testutil.RequireSliceNearlyEqualNaN(t, got, []float64{nan, 4, 6.5, 4, 7}, 1e-12)
}

func TestTemplatesHaveAxisLength(t *testing.T) {
	b := generate(t)

	a := must(t)(InitialTemplate(b.Axis, b.Spectra, b.VPrimary))
	s := must(t)(SecondaryTemplate(b.Axis, b.Spectra, b.VPrimary, b.VSecondary, a))
	p := must(t)(PrimaryTemplate(b.Axis, b.Spectra, b.VPrimary, b.VSecondary, s))

	for name, tpl := range map[string][]float64{"initial": a, "secondary": s, "primary": p} {
		if len(tpl) != len(b.Axis) {
			t.Fatalf("%s template has %d samples, want %d", name, len(tpl), len(b.Axis))
		}
	}
}

func TestSecondaryWithZeroPrimaryReducesToInitial(t *testing.T) {
	b := generate(t)
	zeros := make([]float64, len(b.Axis))

	want := must(t)(InitialTemplate(b.Axis, b.Spectra, b.VSecondary))
	got := must(t)(SecondaryTemplate(b.Axis, b.Spectra, b.VSecondary, b.VSecondary, zeros))
	testutil.RequireSliceNearlyEqualNaN(t, got, want, 0)
}

func TestPrimaryWithZeroSecondaryReducesToInitial(t *testing.T) {
	b := generate(t)
	zeros := make([]float64, len(b.Axis))

	want := must(t)(InitialTemplate(b.Axis, b.Spectra, b.VPrimary))
	got := must(t)(PrimaryTemplate(b.Axis, b.Spectra, b.VPrimary, b.VPrimary, zeros))
	testutil.RequireSliceNearlyEqualNaN(t, got, want, 0)
}

func TestShiftVelocities(t *testing.T) {
	axis := []float64{1, 2, 3}
	spectra := [][]float64{{1, 1, 1}, {1, 1, 1}}
	template := []float64{0, 0, 0}
	vp := []float64{10, -20}
	vs := []float64{-30, 40}

	tests := []struct {
		name string
		run  func(d *Disentangler) error
		want []float64
	}{
		{
			name: "initial",
			run: func(d *Disentangler) error {
				_, err := d.InitialTemplate(axis, spectra, vp)
				return err
			},
			want: []float64{-10, 20},
		},
		{
			name: "secondary",
			run: func(d *Disentangler) error {
				_, err := d.SecondaryTemplate(axis, spectra, vp, vs, template)
				return err
			},
			// Observation into the secondary frame, then the primary at v_p - v_s.
			want: []float64{30, 40, -40, -60},
		},
		{
			name: "primary",
			run: func(d *Disentangler) error {
				_, err := d.PrimaryTemplate(axis, spectra, vp, vs, template)
				return err
			},
			want: []float64{-10, -40, 20, 60},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingShifter{}
			if err := tt.run(New(WithShifter(rec))); err != nil {
				t.Fatalf("error = %v", err)
			}
			testutil.RequireSliceNearlyEqual(t, rec.velocities, tt.want, 0)
		})
	}
}

func TestDimensionMismatchBeforeAnyShift(t *testing.T) {
	axis := []float64{0, 1, 2, 3, 4}
	spectra := [][]float64{
		{1, 2, 3, 4, 5},
		{1, 2, 3, 4},
	}
	v := []float64{0, 0}
	template := make([]float64, len(axis))

	ops := map[string]func(d *Disentangler) error{
		"initial": func(d *Disentangler) error {
			_, err := d.InitialTemplate(axis, spectra, v)
			return err
		},
		"secondary": func(d *Disentangler) error {
			_, err := d.SecondaryTemplate(axis, spectra, v, v, template)
			return err
		},
		"primary": func(d *Disentangler) error {
			_, err := d.PrimaryTemplate(axis, spectra, v, v, template)
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			rec := &recordingShifter{}
			err := op(New(WithShifter(rec)))

			if !errors.Is(err, ErrDimension) {
				t.Fatalf("error = %v, want ErrDimension", err)
			}
			var dimErr *DimensionError
			if !errors.As(err, &dimErr) {
				t.Fatalf("error %T is not a *DimensionError", err)
			}
			if dimErr.Field != "spectra" || dimErr.Index != 1 || dimErr.Got != 4 || dimErr.Want != 5 {
				t.Fatalf("DimensionError = %+v, want spectra[1] 4/5", *dimErr)
			}
			if n := rec.calls(); n != 0 {
				t.Fatalf("%d shifts ran before validation, want 0", n)
			}
		})
	}
}

func TestVelocityLengthMismatch(t *testing.T) {
	axis := []float64{0, 1, 2}
	spectra := [][]float64{{1, 2, 3}, {1, 2, 3}}
	template := []float64{0, 0, 0}

	tests := []struct {
		name  string
		run   func() error
		field string
	}{
		{
			name: "initial",
			run: func() error {
				_, err := InitialTemplate(axis, spectra, []float64{0})
				return err
			},
			field: "v_primary",
		},
		{
			name: "secondary",
			run: func() error {
				_, err := SecondaryTemplate(axis, spectra, []float64{0, 0}, []float64{0, 0, 0}, template)
				return err
			},
			field: "v_secondary",
		},
		{
			name: "primary",
			run: func() error {
				_, err := PrimaryTemplate(axis, spectra, []float64{0, 0}, []float64{0}, template)
				return err
			},
			field: "v_secondary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			var dimErr *DimensionError
			if !errors.As(err, &dimErr) {
				t.Fatalf("error = %v, want *DimensionError", err)
			}
			if dimErr.Field != tt.field || dimErr.Index != -1 {
				t.Fatalf("DimensionError = %+v, want field %s, index -1", *dimErr, tt.field)
			}
		})
	}

	_, err := PrimaryTemplate(axis, spectra, []float64{0, 0}, []float64{0}, template)
	if !strings.Contains(err.Error(), "has 1 entries, want 2") {
		t.Fatalf("error message = %q", err.Error())
	}
}

func TestNoObservations(t *testing.T) {
	if _, err := InitialTemplate([]float64{1, 2}, nil, nil); !errors.Is(err, ErrNoObservations) {
		t.Fatalf("error = %v, want ErrNoObservations", err)
	}
}

func TestTemplateLengthMismatchReportedByShifter(t *testing.T) {
	b := generate(t)

	_, err := SecondaryTemplate(b.Axis, b.Spectra, b.VPrimary, b.VSecondary, b.Primary[:10])
	if !errors.Is(err, doppler.ErrLengthMismatch) || errors.Is(err, ErrDimension) {
		t.Fatalf("short template error = %v, want doppler.ErrLengthMismatch only", err)
	}

	_, err = PrimaryTemplate(b.Axis, b.Spectra, b.VPrimary, b.VSecondary, nil)
	if !errors.Is(err, doppler.ErrLengthMismatch) {
		t.Fatalf("nil template error = %v, want doppler.ErrLengthMismatch", err)
	}
}

func TestShifterOutputLengthChecked(t *testing.T) {
	short := doppler.ShifterFunc(func(_, flux []float64, _ float64) ([]float64, error) {
		return flux[:len(flux)-1], nil
	})

	_, err := New(WithShifter(short)).InitialTemplate([]float64{1, 2}, [][]float64{{1, 2}}, []float64{0})
	if !errors.Is(err, ErrShifterOutput) {
		t.Fatalf("error = %v, want ErrShifterOutput", err)
	}
}

func TestUncoveredPositionIsUndefined(t *testing.T) {
	axis, err := doppler.LinearAxis(5000, 5010, 101)
	if err != nil {
		t.Fatalf("LinearAxis() error = %v", err)
	}

	flat := make([]float64, len(axis))
	core.Fill(flat, 1)
	spectra := [][]float64{flat, flat, flat}

	// Every observation is receding, so in the rest frame the red end has no data.
	got := must(t)(InitialTemplate(axis, spectra, []float64{30, 60, 90}))

	if !math.IsNaN(got[len(got)-1]) {
		t.Fatalf("last sample = %v, want NaN", got[len(got)-1])
	}
	if got[0] != 1 {
		t.Fatalf("first sample = %v, want 1", got[0])
	}
	for j, v := range got {
		if core.IsDefined(v) && math.Abs(v-1) > 1e-12 {
			t.Fatalf("sample %d = %v, want 1", j, v)
		}
	}
}

func TestInputsNotModified(t *testing.T) {
	b := generate(t)
	spectra := cloneAll(b.Spectra)
	primary := core.Clone(b.Primary)

	must(t)(SecondaryTemplate(b.Axis, b.Spectra, b.VPrimary, b.VSecondary, b.Primary))

	testutil.RequireSliceNearlyEqual(t, b.Primary, primary, 0)
	for i := range spectra {
		testutil.RequireSliceNearlyEqualNaN(t, b.Spectra[i], spectra[i], 0)
	}
}

func TestAliasingShifterLeavesInputsIntact(t *testing.T) {
	axis := []float64{0, 1, 2}
	v := []float64{0, 0}

	for _, workers := range []int{1, 2} {
		d := New(WithShifter(identity), WithWorkers(workers))

		spectra := [][]float64{{3, 3, 3}, {5, 5, 5}}
		template := []float64{1, 1, 1}

		secondary := must(t)(d.SecondaryTemplate(axis, spectra, v, v, template))
		testutil.RequireSliceNearlyEqual(t, secondary, []float64{3, 3, 3}, 0)

		primary := must(t)(d.PrimaryTemplate(axis, spectra, v, v, template))
		testutil.RequireSliceNearlyEqual(t, primary, []float64{3, 3, 3}, 0)

		initial := must(t)(d.InitialTemplate(axis, spectra, v))
		testutil.RequireSliceNearlyEqual(t, initial, []float64{4, 4, 4}, 0)

		testutil.RequireSliceNearlyEqual(t, spectra[0], []float64{3, 3, 3}, 0)
		testutil.RequireSliceNearlyEqual(t, spectra[1], []float64{5, 5, 5}, 0)
		testutil.RequireSliceNearlyEqual(t, template, []float64{1, 1, 1}, 0)

		// Templates are fresh slices even when the shifter aliases.
		initial[0] = 99
		testutil.RequireSliceNearlyEqual(t, spectra[0], []float64{3, 3, 3}, 0)
	}
}

func TestWorkersDoNotChangeResult(t *testing.T) {
	b := generate(t)
	d := New(WithWorkers(4))

	serial := must(t)(New().InitialTemplate(b.Axis, b.Spectra, b.VPrimary))
	parallel := must(t)(d.InitialTemplate(b.Axis, b.Spectra, b.VPrimary))
	testutil.RequireSliceNearlyEqualNaN(t, parallel, serial, 0)

	serialB := must(t)(New().SecondaryTemplate(b.Axis, b.Spectra, b.VPrimary, b.VSecondary, serial))
	parallelB := must(t)(d.SecondaryTemplate(b.Axis, b.Spectra, b.VPrimary, b.VSecondary, serial))
	testutil.RequireSliceNearlyEqualNaN(t, parallelB, serialB, 0)
}

func TestContextCancelled(t *testing.T) {
	b := generate(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithWorkers(2)).InitialTemplateContext(ctx, b.Axis, b.Spectra, b.VPrimary)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestLoggerReceivesDebugRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	must(t)(New(WithLogger(logger)).InitialTemplate([]float64{0, 1}, [][]float64{{1, 2}}, []float64{0}))

	for _, want := range []string{"template aggregated", "pass=initial"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("log output %q does not contain %q", buf.String(), want)
		}
	}
}

// offsetError returns the mean of got-want over [lo,hi) and the largest
// deviation from that mean. The mean is the continuum level the iteration
// cannot attribute to either star.
func offsetError(got, want []float64, lo, hi int) (offset, maxDev float64) {
	n := 0
	for j := lo; j < hi; j++ {
		offset += got[j] - want[j]
		n++
	}
	offset /= float64(n)
	for j := lo; j < hi; j++ {
		maxDev = math.Max(maxDev, math.Abs(got[j]-want[j]-offset))
	}
	return offset, maxDev
}

func TestIterationRecoversTemplates(t *testing.T) {
	// Observations come from the cubic kernel while the disentangling uses
	// the linear default, so recovery is not an exact inverse of the generator.
	b, err := synth.Generate(synth.DefaultConfig(), doppler.New(doppler.WithInterpolation(interp.Hermite)))
	if err != nil {
		t.Fatalf("synth.Generate() error = %v", err)
	}
	d := New(WithWorkers(4))

	a := must(t)(d.InitialTemplate(b.Axis, b.Spectra, b.VPrimary))

	var s []float64
	var firstDev float64
	for k := 0; k < 20; k++ {
		s = must(t)(d.SecondaryTemplate(b.Axis, b.Spectra, b.VPrimary, b.VSecondary, a))
		if k == 0 {
			_, firstDev = offsetError(s, b.Secondary, 100, 901)
		}
		a = must(t)(d.PrimaryTemplate(b.Axis, b.Spectra, b.VPrimary, b.VSecondary, s))
	}

	offA, devA := offsetError(a, b.Primary, 100, 901)
	offS, devS := offsetError(s, b.Secondary, 100, 901)

	if devA >= 0.01 || devS >= 0.01 {
		t.Fatalf("deviation primary=%v secondary=%v, want < 0.01", devA, devS)
	}
	if devS >= firstDev/4 {
		t.Fatalf("secondary deviation %v after 20 iterations, first %v: no improvement", devS, firstDev)
	}
	// Whatever continuum one star gains, the other loses.
	if math.Abs(offA+offS) > 1e-3 {
		t.Fatalf("offsets %v + %v do not cancel", offA, offS)
	}
	for _, tpl := range [][]float64{a, s} {
		if c := Coverage(tpl); c <= len(b.Axis)-10 {
			t.Fatalf("coverage %d, want > %d", c, len(b.Axis)-10)
		}
	}
}

func TestRMSDiff(t *testing.T) {
	nan := math.NaN()

	got, n := RMSDiff([]float64{1, 2, nan, 4}, []float64{1, 4, 3, nan})
	if n != 2 || math.Abs(got-math.Sqrt(2)) > 1e-12 {
		t.Fatalf("RMSDiff() = %v, %d; want sqrt(2), 2", got, n)
	}

	got, n = RMSDiff([]float64{nan}, []float64{1})
	if n != 0 || !math.IsNaN(got) {
		t.Fatalf("RMSDiff(no overlap) = %v, %d; want NaN, 0", got, n)
	}

	if got, _ = RMSDiff([]float64{1}, []float64{1, 2}); !math.IsNaN(got) {
		t.Fatalf("RMSDiff(length mismatch) = %v, want NaN", got)
	}
}

func TestDimensionErrorMessage(t *testing.T) {
	err := &DimensionError{Field: "spectra", Index: 3, Got: 9, Want: 10}
	if want := "disentangle: spectra[3] has 9 samples, dispersion axis has 10"; err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrDimension) {
		t.Fatal("DimensionError should match ErrDimension")
	}
}

func TestOffsetRMS(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name        string
		a, b        []float64
		offset, rms float64
		n           int
	}{
		{name: "pure offset", a: []float64{2, 3, nan, 5}, b: []float64{1, 2, 7, 4}, offset: 1, rms: 0, n: 3},
		{name: "offset and spread", a: []float64{1, 3}, b: []float64{0, 0}, offset: 2, rms: 1, n: 2},
		{name: "no overlap", a: []float64{nan}, b: []float64{1}, offset: nan, rms: nan, n: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, rms, n := OffsetRMS(tt.a, tt.b)
			if n != tt.n ||
				!core.SameOrBothUndefined(offset, tt.offset, 1e-12) ||
				!core.SameOrBothUndefined(rms, tt.rms, 1e-12) {
				t.Fatalf("OffsetRMS() = %v, %v, %d; want %v, %v, %d", offset, rms, n, tt.offset, tt.rms, tt.n)
			}
		})
	}
}
