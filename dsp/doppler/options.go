package doppler

import (
	"github.com/ebjordi/dissentanling/dsp/core"
	"github.com/ebjordi/dissentanling/dsp/interp"
)

// DefaultLogTolerance is the relative tolerance on the logarithmic step
// accepted by NewFourier.
const DefaultLogTolerance = 1e-6

// NonRelativisticLimit is a conventional bound for the non-relativistic
// shift, 5% of the speed of light. Pass it to WithMaxVelocity to reject
// velocities where 1+v/c is a poor approximation.
const NonRelativisticLimit = 0.05 * core.SpeedOfLight

type config struct {
	mode         interp.Mode
	edge         EdgeMode
	logTolerance float64
	maxVelocity  float64
}

func defaultConfig() config {
	return config{
		mode:         interp.Linear,
		edge:         EdgeUndefined,
		logTolerance: DefaultLogTolerance,
	}
}

// Option configures a shifter.
type Option func(*config)

// WithInterpolation selects the interpolation kernel of the interpolating
// shifter. The Fourier shifter ignores it.
func WithInterpolation(mode interp.Mode) Option {
	return func(cfg *config) {
		if mode == interp.Linear || mode == interp.Hermite {
			cfg.mode = mode
		}
	}
}

// WithEdgeMode selects how samples shifted in from outside the coverage are filled.
func WithEdgeMode(mode EdgeMode) Option {
	return func(cfg *config) {
		if mode == EdgeUndefined || mode == EdgeFirstLast {
			cfg.edge = mode
		}
	}
}

// WithLogTolerance overrides the relative tolerance used to accept an axis
// as log-uniform.
func WithLogTolerance(tol float64) Option {
	return func(cfg *config) {
		if tol > 0 {
			cfg.logTolerance = tol
		}
	}
}

// WithMaxVelocity makes Shift reject |v| above limit (km/s) with
// ErrVelocity. A limit <= 0 removes the bound, which is the default.
func WithMaxVelocity(limit float64) Option {
	return func(cfg *config) {
		if limit > 0 {
			cfg.maxVelocity = limit
		} else {
			cfg.maxVelocity = 0
		}
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
