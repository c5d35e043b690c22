package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/optionlab/pricer/internal/pricing"
)

func (a *app) compareCmd() *cobra.Command {
	var (
		option pricing.OptionSpec
		steps  int
		paths  int
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Price one option with every engine side by side",
		Long: `Compare prices the option with the analytic, lattice and Monte Carlo engines.
Differences are measured against the analytic price for European options and
against the lattice price for American options.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := option.Params()
			if err != nil {
				return err
			}

			specs := []pricing.EngineSpec{
				{Kind: pricing.KindAnalytic},
				{Kind: pricing.KindLattice, Steps: steps},
				{Kind: pricing.KindMonteCarlo, Paths: paths},
			}
			reference := pricing.KindAnalytic
			if p.Style == pricing.American {
				reference = pricing.KindLattice
			}

			type row struct {
				kind    pricing.EngineKind
				val     pricing.Valuation
				elapsed time.Duration
				err     error
			}
			rows := make([]row, 0, len(specs))
			var refPrice float64
			for _, s := range specs {
				e, err := a.build(s)
				if err != nil {
					return err
				}
				start := time.Now()
				v, err := pricing.Value(e, p, pricing.ValueOptions{})
				r := row{kind: e.Kind(), val: v, elapsed: time.Since(start), err: err}
				switch {
				case errors.Is(err, pricing.ErrEarlyExerciseUnsupported):
				case err != nil:
					return err
				case r.kind == reference:
					refPrice = v.Price
				}
				rows = append(rows, r)
			}

			table := newTable(cmd.OutOrStdout(), "Engine", "Price", "Diff vs "+string(reference), "95% CI", "Time (ms)")
			for _, r := range rows {
				if r.err != nil {
					table.Append([]string{string(r.kind), "n/a", "", "early exercise unsupported", millis(r.elapsed)})
					continue
				}
				ci := ""
				if est := r.val.Estimate; est != nil {
					ci = "[" + num(est.Lower) + ", " + num(est.Upper) + "]"
				}
				table.Append([]string{string(r.kind), num(r.val.Price), num(r.val.Price - refPrice), ci, millis(r.elapsed)})
			}
			table.Render()
			return nil
		},
	}

	addOptionFlags(cmd, &option)
	cmd.Flags().IntVar(&steps, "steps", 0, "Lattice steps. Zero uses the configured default.")
	cmd.Flags().IntVar(&paths, "paths", 0, "Monte Carlo paths. Zero uses the configured default.")
	return cmd
}
