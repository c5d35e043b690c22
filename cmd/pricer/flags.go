package main

import (
	"github.com/spf13/cobra"

	"github.com/optionlab/pricer/internal/pricing"
)

func addOptionFlags(cmd *cobra.Command, o *pricing.OptionSpec) {
	f := cmd.Flags()
	f.StringVar(&o.Type, "type", "call", "Option type (call or put).")
	f.StringVar(&o.Style, "style", "european", "Exercise style (european or american).")
	f.Float64VarP(&o.Strike, "strike", "k", 100, "Strike price.")
	f.Float64VarP(&o.Expiry, "expiry", "t", 1, "Time to expiry in years.")
	f.Float64VarP(&o.Spot, "spot", "s", 100, "Spot price of the underlying.")
	f.Float64VarP(&o.Rate, "rate", "r", 0.05, "Continuously compounded risk-free rate.")
	f.Float64Var(&o.Volatility, "vol", 0.2, "Annualised volatility.")
	f.Float64VarP(&o.Dividend, "dividend", "q", 0, "Continuous dividend yield.")
}

type engineFlags struct {
	kind        string
	steps       int
	paths       int
	workers     int
	seed        uint64
	extrapolate bool
	antithetic  bool
}

func addEngineFlags(cmd *cobra.Command, e *engineFlags) {
	f := cmd.Flags()
	f.StringVarP(&e.kind, "engine", "e", "analytic", "Engine (analytic, lattice or montecarlo).")
	f.IntVar(&e.steps, "steps", 0, "Lattice or path time steps. Zero uses the configured default.")
	f.IntVar(&e.paths, "paths", 0, "Monte Carlo paths. Zero uses the configured default.")
	f.IntVar(&e.workers, "workers", 0, "Monte Carlo parallel batches. Zero uses the configured default.")
	f.Uint64Var(&e.seed, "seed", 0, "Monte Carlo seed. Zero uses the configured default.")
	f.BoolVar(&e.extrapolate, "extrapolate", true, "Lattice: report 2V(2N)-V(N).")
	f.BoolVar(&e.antithetic, "antithetic", true, "Monte Carlo: pair every path with its mirror.")
}

// spec converts the flags into an EngineSpec. Boolean flags override the
// configured defaults only when given explicitly.
func (e *engineFlags) spec(cmd *cobra.Command) pricing.EngineSpec {
	s := pricing.EngineSpec{
		Kind:    pricing.EngineKind(e.kind),
		Steps:   e.steps,
		Paths:   e.paths,
		Workers: e.workers,
		Seed:    e.seed,
	}
	if cmd.Flags().Changed("extrapolate") {
		v := e.extrapolate
		s.Extrapolate = &v
	}
	if cmd.Flags().Changed("antithetic") {
		v := e.antithetic
		s.Antithetic = &v
	}
	return s
}
