package batch

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/optionlab/pricer/internal/pricing"
)

const sample = `
engine:
  kind: lattice
  steps: 200
jobs:
  - name: atm-call
    option: {type: call, strike: 100, expiry: 1, spot: 100, rate: 0.05, volatility: 0.2}
    engine: {kind: analytic}
    greeks: true
  - name: american-put
    option: {type: put, style: american, strike: 100, expiry: 1, spot: 100, rate: 0.05, volatility: 0.2}
  - name: broken
    option: {type: put, strike: -5, expiry: 1, spot: 100, rate: 0.05, volatility: 0.2}
  - option: {type: call, strike: 110, expiry: 0.5, spot: 100, rate: 0.01, volatility: 0.3}
    engine: {kind: montecarlo, paths: 2000, steps: 1, seed: 3}
`

func TestParseAppliesFileEngine(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(f.Jobs) != 4 {
		t.Fatalf("jobs = %d, want 4", len(f.Jobs))
	}
	if f.Jobs[0].Engine.Kind != pricing.KindAnalytic {
		t.Errorf("job 0 engine = %s, want analytic", f.Jobs[0].Engine.Kind)
	}
	if f.Jobs[1].Engine.Kind != pricing.KindLattice || f.Jobs[1].Engine.Steps != 200 {
		t.Errorf("job 1 engine = %+v, want file engine", *f.Jobs[1].Engine)
	}
	if f.Jobs[3].Name != "job-4" {
		t.Errorf("unnamed job = %q, want job-4", f.Jobs[3].Name)
	}
}

func TestParseErrors(t *testing.T) {
	inputs := map[string]string{
		"empty":     "jobs: []\n",
		"malformed": "jobs: [\n",
		"duplicate": "jobs:\n  - name: a\n  - name: a\n",
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunRecordsPerJobErrors(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	results := Runner{Defaults: pricing.DefaultEngineDefaults(), Workers: 2}.Run(context.Background(), f.Jobs)
	if len(results) != len(f.Jobs) {
		t.Fatalf("results = %d, want %d", len(results), len(f.Jobs))
	}
	if got := Failed(results); got != 1 {
		t.Errorf("failed = %d, want 1", got)
	}

	byName := make(map[string]Result)
	for i, r := range results {
		if r.Name != f.Jobs[i].Name {
			t.Errorf("result %d = %s, want %s", i, r.Name, f.Jobs[i].Name)
		}
		byName[r.Name] = r
	}

	call := byName["atm-call"]
	if call.Err != nil || math.Abs(call.Valuation.Price-10.450584) > 1e-5 {
		t.Errorf("atm-call = %+v", call)
	}
	if call.Valuation.Greeks == nil {
		t.Error("expected greeks for atm-call")
	}

	put := byName["american-put"]
	if put.Err != nil || put.Valuation.Engine != pricing.KindLattice {
		t.Errorf("american-put = %+v", put)
	}
	if math.Abs(put.Valuation.Price-6.09) > 0.02 {
		t.Errorf("american put = %f, want about 6.09", put.Valuation.Price)
	}

	if !errors.Is(byName["broken"].Err, pricing.ErrInvalidParameter) {
		t.Errorf("broken error = %v, want ErrInvalidParameter", byName["broken"].Err)
	}

	mc := byName["job-4"]
	if mc.Err != nil || mc.Valuation.Estimate == nil || mc.Valuation.Estimate.Paths != 2000 {
		t.Errorf("monte carlo job = %+v", mc)
	}
}

func TestRunCancelled(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Runner{Defaults: pricing.DefaultEngineDefaults()}.Run(ctx, f.Jobs)
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("%s error = %v, want context.Canceled", r.Name, r.Err)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
