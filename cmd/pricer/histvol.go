package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/optionlab/pricer/internal/marketdata"
)

func (a *app) histvolCmd() *cobra.Command {
	var dt float64

	cmd := &cobra.Command{
		Use:   "histvol FILE",
		Short: "Estimate annualised volatility from a CSV of daily closes",
		Long: `Histvol reads a CSV file with "date" (YYYY-MM-DD) and "close" columns and
reports the annualised sample standard deviation of log returns.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := marketdata.LoadCloses(args[0])
			if err != nil {
				return err
			}
			vol, err := marketdata.HistoricalVolatility(marketdata.Prices(rows), dt)
			if err != nil {
				return err
			}
			a.logger.Debug("loaded price history", "file", args[0], "rows", len(rows))

			table := newTable(cmd.OutOrStdout(), "Observations", "From", "To", "Volatility")
			table.Append([]string{strconv.Itoa(len(rows)), rows[0].Date, rows[len(rows)-1].Date, num(vol)})
			table.Render()
			return nil
		},
	}

	cmd.Flags().Float64Var(&dt, "dt", marketdata.DailyStep, "Year fraction between observations.")
	return cmd
}
