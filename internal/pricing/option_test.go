package pricing

import (
	"errors"
	"sync"
	"testing"
)

func TestNewOptionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		field  string
	}{
		{"zero strike", func(p *Params) { p.Strike = 0 }, "strike"},
		{"negative expiry", func(p *Params) { p.Expiry = -1 }, "expiry"},
		{"zero spot", func(p *Params) { p.Spot = 0 }, "spot"},
		{"zero volatility", func(p *Params) { p.Volatility = 0 }, "volatility"},
		{"negative dividend", func(p *Params) { p.Dividend = -0.01 }, "dividend"},
		{"unknown type", func(p *Params) { p.Type = OptionType(7) }, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := standardParams(Call)
			tt.mutate(&p)
			_, err := NewOption(p)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
			var pe *ParameterError
			if !errors.As(err, &pe) || pe.Field != tt.field {
				t.Errorf("field = %v, want %q", err, tt.field)
			}
		})
	}
}

func TestOptionSettersLeaveStateOnFailure(t *testing.T) {
	opt, err := NewEuropeanOption(Call, 100, 1, 100, 0.05, 0.2, 0)
	if err != nil {
		t.Fatalf("NewEuropeanOption: %v", err)
	}
	before := opt.Params()

	failing := []struct {
		name string
		set  func() error
	}{
		{"expiry", func() error { return opt.SetExpiry(-1) }},
		{"volatility", func() error { return opt.SetVolatility(0) }},
		{"dividend", func() error { return opt.SetDividend(-0.01) }},
		{"spot", func() error { return opt.SetSpot(-5) }},
	}
	for _, f := range failing {
		if err := f.set(); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("Set %s: expected ErrInvalidParameter, got %v", f.name, err)
		}
		if after := opt.Params(); after != before {
			t.Errorf("Set %s changed params: %+v -> %+v", f.name, before, after)
		}
	}

	if err := opt.SetSpot(110); err != nil {
		t.Fatalf("SetSpot: %v", err)
	}
	if err := opt.SetRate(-0.01); err != nil {
		t.Fatalf("SetRate: negative rates are allowed: %v", err)
	}
	if opt.Spot() != 110 || opt.Rate() != -0.01 {
		t.Errorf("spot, rate = %f, %f, want 110, -0.01", opt.Spot(), opt.Rate())
	}
}

func TestOptionWithoutEngine(t *testing.T) {
	opt, err := NewEuropeanOption(Put, 100, 1, 100, 0.05, 0.2, 0)
	if err != nil {
		t.Fatalf("NewEuropeanOption: %v", err)
	}

	queries := map[string]func() (float64, error){
		"price": opt.Price,
		"delta": opt.Delta,
		"gamma": opt.Gamma,
		"theta": opt.Theta,
		"vega":  opt.Vega,
		"rho":   opt.Rho,
	}
	for name, q := range queries {
		if _, err := q(); !errors.Is(err, ErrEngineNotSet) {
			t.Errorf("%s: expected ErrEngineNotSet, got %v", name, err)
		}
	}
	if _, err := opt.Greeks(); !errors.Is(err, ErrEngineNotSet) {
		t.Errorf("Greeks: expected ErrEngineNotSet, got %v", err)
	}
}

func TestOptionDelegatesToEngine(t *testing.T) {
	opt, err := NewEuropeanOption(Call, 100, 1, 100, 0.05, 0.2, 0)
	if err != nil {
		t.Fatalf("NewEuropeanOption: %v", err)
	}
	engine := NewAnalyticEngine()
	opt.SetPricingEngine(engine)

	if opt.Engine() != Engine(engine) {
		t.Fatal("Engine did not return the attached engine")
	}

	price, err := opt.Price()
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	want, _ := engine.Price(opt.Params())
	if price != want {
		t.Errorf("price = %f, want %f", price, want)
	}

	g, err := opt.Greeks()
	if err != nil {
		t.Fatalf("Greeks: %v", err)
	}
	delta, _ := opt.Delta()
	if g.Delta != delta {
		t.Errorf("Greeks().Delta = %f, Delta() = %f", g.Delta, delta)
	}

	if _, err := opt.Estimate(); !errors.Is(err, ErrNoStatistics) {
		t.Errorf("Estimate: expected ErrNoStatistics, got %v", err)
	}
}

func TestAmericanOptionRequiresEarlyExercise(t *testing.T) {
	opt, err := NewAmericanOption(Put, 100, 1, 90, 0.05, 0.2, 0)
	if err != nil {
		t.Fatalf("NewAmericanOption: %v", err)
	}

	opt.SetPricingEngine(NewAnalyticEngine())
	if _, err := opt.Price(); !errors.Is(err, ErrEarlyExerciseUnsupported) {
		t.Fatalf("expected ErrEarlyExerciseUnsupported, got %v", err)
	}
	if _, err := opt.Vega(); !errors.Is(err, ErrEarlyExerciseUnsupported) {
		t.Fatalf("expected ErrEarlyExerciseUnsupported from Vega, got %v", err)
	}

	opt.SetPricingEngine(mustLattice(t, LatticeConfig{Steps: 200}))
	am, err := opt.Price()
	if err != nil {
		t.Fatalf("lattice Price: %v", err)
	}

	eu, err := NewEuropeanOption(Put, 100, 1, 90, 0.05, 0.2, 0)
	if err != nil {
		t.Fatalf("NewEuropeanOption: %v", err)
	}
	eu.SetPricingEngine(opt.Engine())
	ev, err := eu.Price()
	if err != nil {
		t.Fatalf("european Price: %v", err)
	}
	if am <= ev {
		t.Errorf("american %f not above european %f", am, ev)
	}
}

func TestOptionEstimateFromMonteCarlo(t *testing.T) {
	opt, err := NewEuropeanOption(Call, 100, 1, 100, 0.05, 0.2, 0)
	if err != nil {
		t.Fatalf("NewEuropeanOption: %v", err)
	}
	opt.SetPricingEngine(mustMonteCarlo(t, MonteCarloConfig{Paths: 4000, Steps: 1, Workers: 2}))

	est, err := opt.Estimate()
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	price, err := opt.Price()
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if est.Price != price {
		t.Errorf("estimate price %f != Price %f", est.Price, price)
	}
	if est.Paths != 4000 {
		t.Errorf("paths = %d, want 4000", est.Paths)
	}
}

func TestGreeksDoNotMutateOption(t *testing.T) {
	opt, err := NewAmericanOption(Put, 100, 0.5, 95, 0.03, 0.3, 0.01)
	if err != nil {
		t.Fatalf("NewAmericanOption: %v", err)
	}
	opt.SetPricingEngine(mustLattice(t, LatticeConfig{Steps: 100, Extrapolate: true}))
	before := opt.Params()

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := opt.Greeks(); err != nil {
				t.Errorf("Greeks: %v", err)
			}
		}()
	}
	wg.Wait()

	if after := opt.Params(); after != before {
		t.Errorf("params changed: %+v -> %+v", before, after)
	}
}

func TestParseOptionType(t *testing.T) {
	tests := []struct {
		raw      string
		expected OptionType
		wantErr  bool
	}{
		{"call", Call, false},
		{"PUT", Put, false},
		{" c ", Call, false},
		{"straddle", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseOptionType(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOptionType(%q) error = %v, wantErr %t", tt.raw, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.expected {
			t.Errorf("ParseOptionType(%q) = %v, want %v", tt.raw, got, tt.expected)
		}
	}

	if _, err := ParseExerciseStyle("bermudan"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("ParseExerciseStyle(bermudan) error = %v", err)
	}
	if s, err := ParseExerciseStyle(""); err != nil || s != European {
		t.Errorf("ParseExerciseStyle(\"\") = %v, %v, want european", s, err)
	}
}
