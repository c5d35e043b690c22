package pricing

import (
	"errors"
	"fmt"
)

// ValueOptions selects the optional parts of a Valuation.
type ValueOptions struct {
	Greeks   bool
	Boundary bool
}

// Valuation collects everything one request can ask of an engine.
type Valuation struct {
	Engine           EngineKind      `json:"engine"`
	Price            float64         `json:"price"`
	Greeks           *Greeks         `json:"greeks,omitempty"`
	Estimate         *Estimate       `json:"estimate,omitempty"`
	ExerciseBoundary []BoundaryPoint `json:"exercise_boundary,omitempty"`
}

// Value prices p with e. Simulating engines report their Estimate,
// lattice engines report the early-exercise boundary when asked, and
// Greeks are added on request. Engines wrapped by decorators exposing
// Unwrap() Engine are still recognised as lattices.
func Value(e Engine, p Params, opts ValueOptions) (Valuation, error) {
	if e == nil {
		return Valuation{}, ErrEngineNotSet
	}
	if err := p.Validate(); err != nil {
		return Valuation{}, err
	}
	if err := checkExercise(e, p); err != nil {
		return Valuation{}, err
	}

	v := Valuation{Engine: e.Kind()}
	lattice := asLattice(e)
	switch {
	case opts.Boundary && lattice != nil && p.Style == American:
		// Prefer the outermost evaluator so decorators see the call.
		var ev BoundaryEvaluator = lattice
		if outer, ok := e.(BoundaryEvaluator); ok {
			ev = outer
		}
		lv, err := ev.Evaluate(p)
		if err != nil {
			return Valuation{}, err
		}
		v.Price = lv.Price
		v.ExerciseBoundary = lv.ExerciseBoundary
	default:
		price, est, err := priceWithEstimate(e, p)
		if err != nil {
			return Valuation{}, err
		}
		v.Price = price
		v.Estimate = est
	}

	if opts.Greeks {
		g, err := ComputeGreeks(e, p)
		if err != nil {
			return Valuation{}, fmt.Errorf("greeks: %w", err)
		}
		v.Greeks = &g
	}
	return v, nil
}

func asLattice(e Engine) *LatticeEngine {
	for e != nil {
		if l, ok := e.(*LatticeEngine); ok {
			return l
		}
		u, ok := e.(interface{ Unwrap() Engine })
		if !ok {
			return nil
		}
		e = u.Unwrap()
	}
	return nil
}

// priceWithEstimate prefers Simulate so the estimate is not recomputed.
// Decorators may implement Simulator for engines that do not simulate; they
// answer ErrNoStatistics and the plain price is used.
func priceWithEstimate(e Engine, p Params) (float64, *Estimate, error) {
	if sim, ok := e.(Simulator); ok {
		est, err := sim.Simulate(p)
		if err == nil {
			return est.Price, &est, nil
		}
		if !errors.Is(err, ErrNoStatistics) {
			return 0, nil, err
		}
	}
	price, err := e.Price(p)
	return price, nil, err
}
