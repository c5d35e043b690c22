package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/optionlab/pricer/internal/config"
	"github.com/optionlab/pricer/internal/logging"
	"github.com/optionlab/pricer/internal/pricing"
)

type app struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{}
	var logLevel, logFormat string

	root := &cobra.Command{
		Use:          "pricer",
		Short:        "Price European and American options with analytic, lattice and Monte Carlo engines",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel != "" {
				if err := cfg.Logging.Level.UnmarshalText([]byte(logLevel)); err != nil {
					return fmt.Errorf("invalid --log-level: %w", err)
				}
			}
			cfg.Logging.Format = logFormat

			logger, err := logging.NewWithWriter(cfg.Logging, errOut)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error). Defaults to LOG_LEVEL or info.")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format written to stderr (text or json).")

	root.AddCommand(
		a.priceCmd(),
		a.compareCmd(),
		a.ivCmd(),
		a.histvolCmd(),
		a.batchCmd(),
		a.studyCmd(),
		a.tokenCmd(),
	)
	return root
}

// build constructs an engine from spec using the configured defaults.
func (a *app) build(spec pricing.EngineSpec) (pricing.Engine, error) {
	return spec.BuildWith(a.cfg.Engines.Defaults(), a.logger)
}
