package main

import (
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/optionlab/pricer/internal/pricing"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return table
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func millis(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Microseconds())/1000, 'f', 1, 64)
}

func renderValuation(w io.Writer, v pricing.Valuation) {
	table := newTable(w, "Field", "Value")
	table.Append([]string{"Engine", string(v.Engine)})
	table.Append([]string{"Price", num(v.Price)})
	if est := v.Estimate; est != nil {
		table.Append([]string{"Std error", num(est.StdErr)})
		table.Append([]string{"95% CI", "[" + num(est.Lower) + ", " + num(est.Upper) + "]"})
		table.Append([]string{"Paths", strconv.Itoa(est.Paths)})
	}
	if g := v.Greeks; g != nil {
		table.Append([]string{"Delta", num(g.Delta)})
		table.Append([]string{"Gamma", num(g.Gamma)})
		table.Append([]string{"Theta (per day)", num(g.Theta)})
		table.Append([]string{"Vega (per vol pt)", num(g.Vega)})
		table.Append([]string{"Rho (per 1%)", num(g.Rho)})
	}
	table.Render()

	if len(v.ExerciseBoundary) > 0 {
		boundary := newTable(w, "Time", "Critical spot")
		for _, pt := range v.ExerciseBoundary {
			boundary.Append([]string{num(pt.Time), num(pt.Spot)})
		}
		boundary.Render()
	}
}
