package main

import (
	"github.com/spf13/cobra"

	"github.com/optionlab/pricer/internal/pricing"
)

func (a *app) priceCmd() *cobra.Command {
	var (
		option   pricing.OptionSpec
		engine   engineFlags
		greeks   bool
		boundary bool
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price one option",
		Example: `  pricer price --type put --style american -e lattice --steps 500 --greeks
  pricer price -e montecarlo --paths 200000 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := option.Params()
			if err != nil {
				return err
			}
			e, err := a.build(engine.spec(cmd))
			if err != nil {
				return err
			}

			v, err := pricing.Value(e, p, pricing.ValueOptions{Greeks: greeks, Boundary: boundary})
			if err != nil {
				return err
			}
			a.logger.Debug("priced option", "engine", v.Engine, "price", v.Price)

			renderValuation(cmd.OutOrStdout(), v)
			return nil
		},
	}

	addOptionFlags(cmd, &option)
	addEngineFlags(cmd, &engine)
	cmd.Flags().BoolVarP(&greeks, "greeks", "g", false, "Also compute delta, gamma, theta, vega and rho.")
	cmd.Flags().BoolVar(&boundary, "boundary", false, "Lattice, American only: print the early-exercise boundary.")
	return cmd
}
