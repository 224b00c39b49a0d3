package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "disentangle-synth",
		Short: "Run spectral disentangling on a synthetic binary",
		Long: `disentangle-synth builds a synthetic double-lined binary, observes it at
evenly spread orbital phases and runs a fixed number of alternating
secondary/primary template refinements on the composite spectra.

After every iteration it prints the continuum offset and the offset-corrected
RMS error of both recovered templates against the true ones.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			return run(cmd.Context(), cfg, cmd.OutOrStdout(), logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./disentangle.yaml)")
	flags.IntP("iterations", "n", 0, "number of secondary/primary refinements")
	flags.Int("workers", 0, "observations shifted concurrently")
	flags.String("shifter", "", "Doppler shifter (linear|hermite|fourier)")
	flags.String("edge", "", "edge handling (undefined|firstlast)")
	flags.Float64("max-velocity", 0, "reject |v| above this many km/s (0: no limit)")
	flags.StringP("output", "o", "", "output format (table|markdown|csv)")
	flags.BoolP("verbose", "v", false, "debug logging")
	flags.Int("epochs", 0, "number of observations")
	flags.Int("samples", 0, "samples on the dispersion axis")
	flags.Float64("noise", 0, "peak amplitude of uniform noise per observation")
	flags.Int64("seed", 0, "noise seed")
	flags.Bool("log-uniform", false, "sample the axis uniformly in log wavelength")

	_ = cmd.RegisterFlagCompletionFunc("shifter", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"linear", "hermite", "fourier"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "markdown", "csv"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
