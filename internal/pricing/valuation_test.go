package pricing

import (
	"errors"
	"math"
	"testing"
)

type wrapped struct{ Engine }

func (w wrapped) Unwrap() Engine { return w.Engine }

func TestValueAnalytic(t *testing.T) {
	p := standardParams(Call)
	v, err := Value(NewAnalyticEngine(), p, ValueOptions{Greeks: true})
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if math.Abs(v.Price-10.450584) > 1e-5 {
		t.Errorf("price = %f, want 10.450584", v.Price)
	}
	if v.Greeks == nil || math.Abs(v.Greeks.Delta-0.636831) > 1e-5 {
		t.Errorf("greeks = %+v", v.Greeks)
	}
	if v.Estimate != nil || v.ExerciseBoundary != nil {
		t.Errorf("analytic valuation should carry no estimate or boundary: %+v", v)
	}
}

func TestValueRejectsAmericanOnAnalytic(t *testing.T) {
	p := standardParams(Put)
	p.Style = American
	if _, err := Value(NewAnalyticEngine(), p, ValueOptions{}); !errors.Is(err, ErrEarlyExerciseUnsupported) {
		t.Fatalf("error = %v, want ErrEarlyExerciseUnsupported", err)
	}
	if _, err := Value(nil, p, ValueOptions{}); !errors.Is(err, ErrEngineNotSet) {
		t.Fatalf("error = %v, want ErrEngineNotSet", err)
	}
}

func TestValueLatticeBoundaryThroughWrapper(t *testing.T) {
	lattice := mustLattice(t, LatticeConfig{Steps: 200})
	p := standardParams(Put)
	p.Style = American

	v, err := Value(wrapped{lattice}, p, ValueOptions{Boundary: true})
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if len(v.ExerciseBoundary) == 0 {
		t.Fatal("expected an exercise boundary for an American put")
	}
	direct, err := lattice.Price(p)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if math.Abs(v.Price-direct) > 1e-12 {
		t.Errorf("price = %f, want %f", v.Price, direct)
	}
}

func TestValueMonteCarloEstimate(t *testing.T) {
	mc := mustMonteCarlo(t, MonteCarloConfig{Paths: 2000, Steps: 1, Antithetic: true})
	v, err := Value(mc, standardParams(Call), ValueOptions{})
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v.Estimate == nil {
		t.Fatal("expected an estimate from a simulating engine")
	}
	if v.Estimate.Price != v.Price {
		t.Errorf("estimate price = %f, want %f", v.Estimate.Price, v.Price)
	}
	if v.Estimate.Lower > v.Price || v.Estimate.Upper < v.Price {
		t.Errorf("interval [%f, %f] does not contain %f", v.Estimate.Lower, v.Estimate.Upper, v.Price)
	}
}
