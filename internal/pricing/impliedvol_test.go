package pricing

import (
	"errors"
	"math"
	"testing"
)

func TestImpliedVolatilityRecoversInput(t *testing.T) {
	tests := []struct {
		name string
		typ  OptionType
		spot float64
		vol  float64
	}{
		{"ATM call", Call, 100, 0.2},
		{"OTM call", Call, 80, 0.35},
		{"ITM put", Put, 80, 0.15},
		{"high vol put", Put, 110, 1.2},
	}

	engine := NewAnalyticEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := standardParams(tt.typ)
			p.Spot = tt.spot
			p.Volatility = tt.vol
			market, err := engine.Price(p)
			if err != nil {
				t.Fatalf("Price: %v", err)
			}

			p.Volatility = 0.9 // ignored
			iv, err := ImpliedVolatility(engine, p, market)
			if err != nil {
				t.Fatalf("ImpliedVolatility: %v", err)
			}
			if math.Abs(iv-tt.vol) > 1e-6 {
				t.Errorf("iv = %f, want %f", iv, tt.vol)
			}
		})
	}
}

func TestImpliedVolatilityWithLattice(t *testing.T) {
	engine := mustLattice(t, LatticeConfig{Steps: 200})
	p := Params{Type: Put, Style: American, Strike: 100, Expiry: 1, Spot: 95, Rate: 0.05, Volatility: 0.25}
	market, err := engine.Price(p)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}

	iv, err := ImpliedVolatility(engine, p, market)
	if err != nil {
		t.Fatalf("ImpliedVolatility: %v", err)
	}
	if math.Abs(iv-0.25) > 1e-5 {
		t.Errorf("iv = %f, want 0.25", iv)
	}
}

func TestImpliedVolatilityErrors(t *testing.T) {
	analytic := NewAnalyticEngine()
	call := standardParams(Call)

	tests := []struct {
		name   string
		engine Engine
		params Params
		price  float64
		target error
	}{
		{"no engine", nil, call, 10, ErrEngineNotSet},
		{"non-positive price", analytic, call, 0, ErrInvalidParameter},
		{"above spot", analytic, call, 150, ErrInvalidParameter},
		{"below intrinsic", analytic, Params{Type: Call, Strike: 50, Expiry: 1, Spot: 100, Rate: 0.05, Volatility: 0.2}, 40, ErrInvalidParameter},
		{"american on analytic", analytic, Params{Type: Put, Style: American, Strike: 100, Expiry: 1, Spot: 100, Rate: 0.05, Volatility: 0.2}, 6, ErrEarlyExerciseUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImpliedVolatility(tt.engine, tt.params, tt.price)
			if !errors.Is(err, tt.target) {
				t.Errorf("error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestBrentFindsRoot(t *testing.T) {
	f := func(x float64) (float64, error) { return x*x*x - 2*x - 5, nil }
	root, err := brent(f, 2, 3, 1e-12, 100)
	if err != nil {
		t.Fatalf("brent: %v", err)
	}
	if math.Abs(root-2.0945514815423265) > 1e-10 {
		t.Errorf("root = %.12f, want 2.094551481542", root)
	}

	_, err = brent(f, 2, 3, 1e-12, 1)
	if !errors.Is(err, ErrNoConvergence) {
		t.Errorf("expected ErrNoConvergence with one iteration, got %v", err)
	}
}
