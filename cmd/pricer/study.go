package main

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"github.com/optionlab/pricer/internal/pricing"
)

// studyReferenceSteps sizes the lattice that serves as the reference price
// for American options.
const studyReferenceSteps = 2000

type studySummary struct {
	mode     string
	mean     float64
	stdDev   float64
	p5, p95  float64
	width    float64
	coverage float64
}

func (a *app) studyCmd() *cobra.Command {
	var (
		option pricing.OptionSpec
		trials int
		paths  int
		steps  int
	)

	cmd := &cobra.Command{
		Use:   "study",
		Short: "Measure Monte Carlo dispersion with and without antithetic variates",
		Long: `Study reprices the option with seeds 1..trials, once with plain sampling and
once with antithetic variates, and summarises the spread of the estimates and
how often the 95% interval contains the reference price (analytic for
European options, a fine lattice for American options).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if trials < 2 {
				return fmt.Errorf("--trials must be at least 2")
			}
			p, err := option.Params()
			if err != nil {
				return err
			}

			reference, err := a.referencePrice(p)
			if err != nil {
				return err
			}

			var summaries []studySummary
			for _, antithetic := range []bool{false, true} {
				s, err := a.runStudy(cmd, p, reference, antithetic, trials, paths, steps)
				if err != nil {
					return err
				}
				summaries = append(summaries, s)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "reference price: %s\n", num(reference))
			table := newTable(out, "Sampling", "Mean", "Std dev", "Bias", "P5", "P95", "Mean CI width", "Coverage")
			for _, s := range summaries {
				table.Append([]string{
					s.mode,
					num(s.mean),
					num(s.stdDev),
					num(s.mean - reference),
					num(s.p5),
					num(s.p95),
					num(s.width),
					fmt.Sprintf("%.1f%%", 100*s.coverage),
				})
			}
			table.Render()
			return nil
		},
	}

	addOptionFlags(cmd, &option)
	cmd.Flags().IntVarP(&trials, "trials", "n", 20, "Number of seeds per sampling mode.")
	cmd.Flags().IntVar(&paths, "paths", 10000, "Paths per trial.")
	cmd.Flags().IntVar(&steps, "steps", 0, "Time steps per path. Zero uses the configured default.")
	return cmd
}

func (a *app) referencePrice(p pricing.Params) (float64, error) {
	spec := pricing.EngineSpec{Kind: pricing.KindAnalytic}
	if p.Style == pricing.American {
		spec = pricing.EngineSpec{Kind: pricing.KindLattice, Steps: studyReferenceSteps}
	}
	e, err := a.build(spec)
	if err != nil {
		return 0, err
	}
	return e.Price(p)
}

func (a *app) runStudy(cmd *cobra.Command, p pricing.Params, reference float64, antithetic bool, trials, paths, steps int) (studySummary, error) {
	mode := "plain"
	if antithetic {
		mode = "antithetic"
	}

	prices := make(stats.Float64Data, 0, trials)
	widths := make(stats.Float64Data, 0, trials)
	covered := 0
	for seed := 1; seed <= trials; seed++ {
		if err := cmd.Context().Err(); err != nil {
			return studySummary{}, err
		}
		e, err := a.build(pricing.EngineSpec{
			Kind:       pricing.KindMonteCarlo,
			Paths:      paths,
			Steps:      steps,
			Antithetic: &antithetic,
			Seed:       uint64(seed),
		})
		if err != nil {
			return studySummary{}, err
		}
		est, err := e.(pricing.Simulator).Simulate(p)
		if err != nil {
			return studySummary{}, err
		}
		prices = append(prices, est.Price)
		widths = append(widths, est.Width())
		if est.Lower <= reference && reference <= est.Upper {
			covered++
		}
	}
	a.logger.Debug("study mode complete", "mode", mode, "trials", trials, "covered", covered)

	s := studySummary{mode: mode, coverage: float64(covered) / float64(trials)}
	var err error
	if s.mean, err = stats.Mean(prices); err != nil {
		return studySummary{}, err
	}
	if s.stdDev, err = stats.StandardDeviationSample(prices); err != nil {
		return studySummary{}, err
	}
	if s.p5, err = stats.Percentile(prices, 5); err != nil {
		return studySummary{}, err
	}
	if s.p95, err = stats.Percentile(prices, 95); err != nil {
		return studySummary{}, err
	}
	if s.width, err = stats.Mean(widths); err != nil {
		return studySummary{}, err
	}
	return s, nil
}
