package pricing

import (
	"fmt"
	"strings"
)

// EngineKind identifies a pricing method.
type EngineKind string

const (
	KindAnalytic   EngineKind = "analytic"
	KindLattice    EngineKind = "lattice"
	KindMonteCarlo EngineKind = "montecarlo"
)

// ParseEngineKind normalises user input such as "Monte-Carlo" or "binomial".
func ParseEngineKind(raw string) (EngineKind, error) {
	switch strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(raw)) {
	case "analytic", "blackscholes", "bs", "bsm":
		return KindAnalytic, nil
	case "lattice", "binomial", "crr", "tree":
		return KindLattice, nil
	case "montecarlo", "mc":
		return KindMonteCarlo, nil
	default:
		return "", invalid("engine", "unknown engine kind %q", raw)
	}
}

// Engine values a single option described by a Params snapshot.
//
// Implementations hold configuration only. They are safe for concurrent use
// and never retain per-call state.
//
// Greeks follow one convention across engines: delta and gamma are raw, theta
// is the value change per calendar day, vega is per volatility point and rho
// is per 1% move in the rate.
type Engine interface {
	Kind() EngineKind
	Price(p Params) (float64, error)
	Delta(p Params) (float64, error)
	Gamma(p Params) (float64, error)
	Theta(p Params) (float64, error)
	Vega(p Params) (float64, error)
	Rho(p Params) (float64, error)
	// SupportsEarlyExercise reports whether American params receive
	// early-exercise credit.
	SupportsEarlyExercise() bool
}

// Simulator is implemented by engines whose prices carry sampling error.
type Simulator interface {
	Simulate(p Params) (Estimate, error)
}

// BoundaryEvaluator is implemented by engines that can report the
// early-exercise boundary alongside the price.
type BoundaryEvaluator interface {
	Evaluate(Params) (LatticeValuation, error)
}

// Greeks bundles every sensitivity of one option.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// ComputeGreeks evaluates all five sensitivities with one engine.
func ComputeGreeks(e Engine, p Params) (Greeks, error) {
	var (
		g   Greeks
		err error
	)
	if g.Delta, err = e.Delta(p); err != nil {
		return Greeks{}, fmt.Errorf("delta: %w", err)
	}
	if g.Gamma, err = e.Gamma(p); err != nil {
		return Greeks{}, fmt.Errorf("gamma: %w", err)
	}
	if g.Theta, err = e.Theta(p); err != nil {
		return Greeks{}, fmt.Errorf("theta: %w", err)
	}
	if g.Vega, err = e.Vega(p); err != nil {
		return Greeks{}, fmt.Errorf("vega: %w", err)
	}
	if g.Rho, err = e.Rho(p); err != nil {
		return Greeks{}, fmt.Errorf("rho: %w", err)
	}
	return g, nil
}

// checkExercise rejects American params on engines without early exercise.
func checkExercise(e Engine, p Params) error {
	if p.Style == American && !e.SupportsEarlyExercise() {
		return fmt.Errorf("%s engine: %w", e.Kind(), ErrEarlyExerciseUnsupported)
	}
	return nil
}
