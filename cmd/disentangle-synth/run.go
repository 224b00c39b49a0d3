package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ebjordi/dissentanling/dsp/disentangle"
	"github.com/ebjordi/dissentanling/dsp/doppler"
	"github.com/ebjordi/dissentanling/dsp/interp"
	"github.com/ebjordi/dissentanling/internal/synth"
)

// iterationStats summarises one pair of templates against the truth.
type iterationStats struct {
	iteration        int
	primaryOffset    float64
	primaryRMS       float64
	secondaryOffset  float64
	secondaryRMS     float64
	primaryCovered   int
	secondaryCovered int
}

func run(ctx context.Context, cfg *Config, w io.Writer, logger *slog.Logger) error {
	edge := doppler.EdgeUndefined
	if cfg.Edge == "firstlast" {
		edge = doppler.EdgeFirstLast
	}

	// Observations are always synthesised with the cubic kernel so the
	// disentangling shifter never simply inverts the generator.
	binary, err := synth.Generate(cfg.Synth, doppler.New(doppler.WithInterpolation(interp.Hermite)))
	if err != nil {
		return err
	}
	logger.Info("synthetic binary generated",
		"samples", len(binary.Axis),
		"epochs", len(binary.Spectra),
		"k1", cfg.Synth.Orbit.K1,
		"k2", cfg.Synth.Orbit.K2,
		"noise", cfg.Synth.Noise,
	)

	shifter, err := newShifter(cfg.Shifter, edge, cfg.MaxVelocity, binary.Axis)
	if err != nil {
		return err
	}
	logShifter(logger, shifter, cfg.MaxVelocity)

	d := disentangle.New(
		disentangle.WithShifter(shifter),
		disentangle.WithWorkers(cfg.Workers),
		disentangle.WithLogger(logger),
	)

	primary, err := d.InitialTemplateContext(ctx, binary.Axis, binary.Spectra, binary.VPrimary)
	if err != nil {
		return err
	}

	var secondary []float64
	var rows []iterationStats
	for k := 1; k <= cfg.Iterations; k++ {
		secondary, err = d.SecondaryTemplateContext(ctx, binary.Axis, binary.Spectra, binary.VPrimary, binary.VSecondary, primary)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", k, err)
		}
		primary, err = d.PrimaryTemplateContext(ctx, binary.Axis, binary.Spectra, binary.VPrimary, binary.VSecondary, secondary)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", k, err)
		}

		rows = append(rows, compare(k, binary, primary, secondary))
		logger.Debug("iteration done", "iteration", k)
	}

	if len(rows) == 0 {
		offset, rms, _ := disentangle.OffsetRMS(primary, binary.Primary)
		_, _ = fmt.Fprintf(w, "initial primary template: offset %.4f, rms %.5f\n", offset, rms)
		return nil
	}

	return render(w, cfg.Output, rows)
}

func newShifter(name string, edge doppler.EdgeMode, maxVelocity float64, axis []float64) (doppler.Shifter, error) {
	opts := []doppler.Option{doppler.WithEdgeMode(edge), doppler.WithMaxVelocity(maxVelocity)}
	switch name {
	case "hermite":
		return doppler.New(append(opts, doppler.WithInterpolation(interp.Hermite))...), nil
	case "fourier":
		return doppler.NewFourier(axis, opts...)
	default:
		return doppler.New(opts...), nil
	}
}

func logShifter(logger *slog.Logger, s doppler.Shifter, maxVelocity float64) {
	switch s := s.(type) {
	case *doppler.Interpolating:
		logger.Debug("shifter configured", "kernel", s.Mode(), "edge", s.Edge(), "max_velocity", maxVelocity)
	case *doppler.Fourier:
		logger.Debug("shifter configured", "kernel", "fourier", "edge", s.Edge(),
			"fft_size", s.FFTSize(), "max_velocity", maxVelocity)
	}
}

func compare(k int, b *synth.Binary, primary, secondary []float64) iterationStats {
	pOff, pRMS, _ := disentangle.OffsetRMS(primary, b.Primary)
	sOff, sRMS, _ := disentangle.OffsetRMS(secondary, b.Secondary)

	return iterationStats{
		iteration:        k,
		primaryOffset:    pOff,
		primaryRMS:       pRMS,
		secondaryOffset:  sOff,
		secondaryRMS:     sRMS,
		primaryCovered:   disentangle.Coverage(primary),
		secondaryCovered: disentangle.Coverage(secondary),
	}
}

func render(w io.Writer, format string, rows []iterationStats) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Iter", "A offset", "A rms", "B offset", "B rms", "A covered", "B covered"})

	for _, r := range rows {
		t.AppendRow(table.Row{
			r.iteration,
			fmt.Sprintf("%+.4f", r.primaryOffset),
			fmt.Sprintf("%.5f", r.primaryRMS),
			fmt.Sprintf("%+.4f", r.secondaryOffset),
			fmt.Sprintf("%.5f", r.secondaryRMS),
			r.primaryCovered,
			r.secondaryCovered,
		})
	}

	switch format {
	case "markdown":
		t.RenderMarkdown()
	case "csv":
		t.RenderCSV()
	default:
		t.Render()
	}

	return nil
}
