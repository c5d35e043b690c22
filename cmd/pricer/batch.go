package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/optionlab/pricer/internal/batch"
)

func (a *app) batchCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Price every job in a YAML batch file",
		Example: `  # jobs.yaml
  engine: {kind: lattice, steps: 500}
  jobs:
    - name: spy-put
      option: {type: put, style: american, strike: 450, expiry: 0.25, spot: 440, rate: 0.05, volatility: 0.18}
      greeks: true

  pricer batch jobs.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := batch.Load(args[0])
			if err != nil {
				return err
			}

			runner := batch.Runner{
				Defaults: a.cfg.Engines.Defaults(),
				Workers:  workers,
				Logger:   a.logger,
			}
			results := runner.Run(cmd.Context(), f.Jobs)

			table := newTable(cmd.OutOrStdout(), "Job", "Engine", "Price", "Delta", "Std error", "Time (ms)", "Error")
			for _, r := range results {
				if r.Err != nil {
					table.Append([]string{r.Name, string(r.Engine.Kind), "", "", "", "", r.Err.Error()})
					continue
				}
				delta, stderr := "", ""
				if g := r.Valuation.Greeks; g != nil {
					delta = num(g.Delta)
				}
				if est := r.Valuation.Estimate; est != nil {
					stderr = num(est.StdErr)
				}
				table.Append([]string{r.Name, string(r.Valuation.Engine), num(r.Valuation.Price), delta, stderr, millis(r.Duration), ""})
			}
			table.Render()

			if failed := batch.Failed(results); failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Jobs priced concurrently. Zero means GOMAXPROCS.")
	return cmd
}
