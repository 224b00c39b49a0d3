package disentangle

import (
	"log/slog"

	"github.com/ebjordi/dissentanling/dsp/doppler"
)

type config struct {
	shifter doppler.Shifter
	workers int
	logger  *slog.Logger
}

func defaultConfig() config {
	return config{
		shifter: doppler.New(),
		workers: 1,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// Option configures a Disentangler.
type Option func(*config)

// WithShifter replaces the default linear-interpolation Doppler shifter.
func WithShifter(s doppler.Shifter) Option {
	return func(cfg *config) {
		if s != nil {
			cfg.shifter = s
		}
	}
}

// WithWorkers sets how many observations are shifted concurrently.
// Results do not depend on n.
func WithWorkers(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// WithLogger sets the logger used for per-call debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}
