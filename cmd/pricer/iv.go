package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/optionlab/pricer/internal/pricing"
)

func (a *app) ivCmd() *cobra.Command {
	var (
		option      pricing.OptionSpec
		engine      engineFlags
		marketPrice float64
	)

	cmd := &cobra.Command{
		Use:   "iv",
		Short: "Solve for the volatility that reproduces a market price",
		Example: `  pricer iv --market-price 10.45
  pricer iv --type put --style american -e lattice --market-price 6.5`,
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

			vol, err := pricing.ImpliedVolatility(e, p, marketPrice)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "implied volatility: %s (%s engine)\n", num(vol), e.Kind())
			return nil
		},
	}

	addOptionFlags(cmd, &option)
	addEngineFlags(cmd, &engine)
	cmd.Flags().Float64Var(&marketPrice, "market-price", 0, "Observed option price.")
	_ = cmd.MarkFlagRequired("market-price")
	return cmd
}
