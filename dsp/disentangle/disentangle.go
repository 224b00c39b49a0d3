package disentangle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-vecmath"
	"golang.org/x/sync/errgroup"

	"github.com/ebjordi/dissentanling/dsp/doppler"
)

// Disentangler computes component templates with a fixed shifter, worker
// count and logger. The zero value is not usable; call New.
// A Disentangler holds no state between calls and is safe for concurrent use
// when its shifter is.
type Disentangler struct {
	shifter doppler.Shifter
	workers int
	logger  *slog.Logger
}

// New returns a Disentangler. Without options it shifts with
// doppler.New() on a single goroutine and discards log records.
func New(opts ...Option) *Disentangler {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Disentangler{
		shifter: cfg.shifter,
		workers: cfg.workers,
		logger:  cfg.logger,
	}
}

var defaultDisentangler = New()

// pass describes one template reconstruction. Every observation is shifted
// by -own[i]; on refinement passes the contaminant is shifted by
// other[i]-own[i] and subtracted before averaging.
type pass struct {
	name        string
	refine      bool
	own         []float64
	ownField    string
	other       []float64
	otherField  string
	contaminant []float64
}

// InitialTemplate returns the first estimate of the primary template: the
// observations shifted by -vPrimary[i] and averaged over defined samples.
func (d *Disentangler) InitialTemplate(axis []float64, spectra [][]float64, vPrimary []float64) ([]float64, error) {
	return d.InitialTemplateContext(context.Background(), axis, spectra, vPrimary)
}

// InitialTemplateContext is InitialTemplate with cancellation.
func (d *Disentangler) InitialTemplateContext(ctx context.Context, axis []float64, spectra [][]float64, vPrimary []float64) ([]float64, error) {
	return d.run(ctx, axis, spectra, pass{
		name:     "initial",
		own:      vPrimary,
		ownField: "v_primary",
	})
}

// SecondaryTemplate returns the secondary template given the current
// primary template. Each observation is shifted by -vSecondary[i], the
// primary template shifted by vPrimary[i]-vSecondary[i] is subtracted and
// the residuals are averaged over defined samples.
//
// The length of primary is not checked here; a mismatch is reported by the
// shifter.
func (d *Disentangler) SecondaryTemplate(axis []float64, spectra [][]float64, vPrimary, vSecondary, primary []float64) ([]float64, error) {
	return d.SecondaryTemplateContext(context.Background(), axis, spectra, vPrimary, vSecondary, primary)
}

// SecondaryTemplateContext is SecondaryTemplate with cancellation.
func (d *Disentangler) SecondaryTemplateContext(ctx context.Context, axis []float64, spectra [][]float64, vPrimary, vSecondary, primary []float64) ([]float64, error) {
	return d.run(ctx, axis, spectra, pass{
		name:        "secondary",
		refine:      true,
		own:         vSecondary,
		ownField:    "v_secondary",
		other:       vPrimary,
		otherField:  "v_primary",
		contaminant: primary,
	})
}

// PrimaryTemplate refines the primary template given the current
// secondary template. It mirrors SecondaryTemplate: observations are
// shifted by -vPrimary[i] and the secondary template, shifted by
// vSecondary[i]-vPrimary[i], is subtracted.
func (d *Disentangler) PrimaryTemplate(axis []float64, spectra [][]float64, vPrimary, vSecondary, secondary []float64) ([]float64, error) {
	return d.PrimaryTemplateContext(context.Background(), axis, spectra, vPrimary, vSecondary, secondary)
}

// PrimaryTemplateContext is PrimaryTemplate with cancellation.
func (d *Disentangler) PrimaryTemplateContext(ctx context.Context, axis []float64, spectra [][]float64, vPrimary, vSecondary, secondary []float64) ([]float64, error) {
	return d.run(ctx, axis, spectra, pass{
		name:        "primary",
		refine:      true,
		own:         vPrimary,
		ownField:    "v_primary",
		other:       vSecondary,
		otherField:  "v_secondary",
		contaminant: secondary,
	})
}

func (d *Disentangler) run(ctx context.Context, axis []float64, spectra [][]float64, p pass) ([]float64, error) {
	if err := checkDimensions(axis, spectra, p); err != nil {
		return nil, err
	}

	residuals := make([][]float64, len(spectra))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i := range spectra {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := d.residual(axis, spectra[i], i, p)
			if err != nil {
				return err
			}
			residuals[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Sum in observation order so the result does not depend on scheduling.
	acc := newAccumulator(len(axis))
	for _, r := range residuals {
		acc.add(r)
	}
	template := acc.mean()

	d.logger.Debug("template aggregated",
		"pass", p.name,
		"observations", len(spectra),
		"samples", len(axis),
		"uncovered", len(template)-Coverage(template),
	)

	return template, nil
}

// residual shifts one observation into the rest frame of the component
// being rebuilt and removes the contaminant, if any. It never writes into
// slices returned by the shifter; the accumulator only reads residuals.
func (d *Disentangler) residual(axis, spectrum []float64, i int, p pass) ([]float64, error) {
	shifted, err := d.shift(axis, spectrum, -p.own[i])
	if err != nil {
		return nil, fmt.Errorf("disentangle: %s pass, observation %d: %w", p.name, i, err)
	}
	if !p.refine {
		return shifted, nil
	}

	contamination, err := d.shift(axis, p.contaminant, p.other[i]-p.own[i])
	if err != nil {
		return nil, fmt.Errorf("disentangle: %s pass, contaminant for observation %d: %w", p.name, i, err)
	}

	// Shifter outputs may alias their inputs, so the difference goes into a
	// fresh slice.
	out := make([]float64, len(axis))
	vecmath.ScaleBlock(out, contamination, -1)
	vecmath.AddBlockInPlace(out, shifted)

	return out, nil
}

func (d *Disentangler) shift(axis, flux []float64, v float64) ([]float64, error) {
	out, err := d.shifter.Shift(axis, flux, v)
	if err != nil {
		return nil, err
	}
	if len(out) != len(axis) {
		return nil, fmt.Errorf("%w: %d samples, want %d", ErrShifterOutput, len(out), len(axis))
	}

	return out, nil
}

// checkDimensions validates every length before any shifting happens.
func checkDimensions(axis []float64, spectra [][]float64, p pass) error {
	if len(spectra) == 0 {
		return ErrNoObservations
	}
	for i, s := range spectra {
		if len(s) != len(axis) {
			return &DimensionError{Field: "spectra", Index: i, Got: len(s), Want: len(axis)}
		}
	}
	if len(p.own) != len(spectra) {
		return &DimensionError{Field: p.ownField, Index: -1, Got: len(p.own), Want: len(spectra)}
	}
	if p.refine && len(p.other) != len(spectra) {
		return &DimensionError{Field: p.otherField, Index: -1, Got: len(p.other), Want: len(spectra)}
	}

	return nil
}

// InitialTemplate calls (*Disentangler).InitialTemplate with default options.
func InitialTemplate(axis []float64, spectra [][]float64, vPrimary []float64) ([]float64, error) {
	return defaultDisentangler.InitialTemplate(axis, spectra, vPrimary)
}

// SecondaryTemplate calls (*Disentangler).SecondaryTemplate with default options.
func SecondaryTemplate(axis []float64, spectra [][]float64, vPrimary, vSecondary, primary []float64) ([]float64, error) {
	return defaultDisentangler.SecondaryTemplate(axis, spectra, vPrimary, vSecondary, primary)
}

// PrimaryTemplate calls (*Disentangler).PrimaryTemplate with default options.
func PrimaryTemplate(axis []float64, spectra [][]float64, vPrimary, vSecondary, secondary []float64) ([]float64, error) {
	return defaultDisentangler.PrimaryTemplate(axis, spectra, vPrimary, vSecondary, secondary)
}
