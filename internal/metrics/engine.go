package metrics

import (
	"fmt"
	"time"

	"github.com/optionlab/pricer/internal/pricing"
)

// InstrumentedEngine decorates a pricing engine with evaluation metrics.
type InstrumentedEngine struct {
	inner     pricing.Engine
	collector *Collector
}

// InstrumentEngine wraps e so every call is counted and timed.
func (c *Collector) InstrumentEngine(e pricing.Engine) *InstrumentedEngine {
	return &InstrumentedEngine{inner: e, collector: c}
}

// Unwrap returns the decorated engine.
func (e *InstrumentedEngine) Unwrap() pricing.Engine { return e.inner }

func (e *InstrumentedEngine) Kind() pricing.EngineKind    { return e.inner.Kind() }
func (e *InstrumentedEngine) SupportsEarlyExercise() bool { return e.inner.SupportsEarlyExercise() }

func (e *InstrumentedEngine) observe(op string, f func(pricing.Params) (float64, error), p pricing.Params) (float64, error) {
	start := time.Now()
	v, err := f(p)
	e.collector.ObserveEvaluation(string(e.inner.Kind()), op, time.Since(start), err)
	return v, err
}

// Price routes simulating engines through Simulate so their paths are counted.
func (e *InstrumentedEngine) Price(p pricing.Params) (float64, error) {
	if _, ok := e.inner.(pricing.Simulator); ok {
		est, err := e.Simulate(p)
		return est.Price, err
	}
	return e.observe("price", e.inner.Price, p)
}

func (e *InstrumentedEngine) Delta(p pricing.Params) (float64, error) {
	return e.observe("delta", e.inner.Delta, p)
}

func (e *InstrumentedEngine) Gamma(p pricing.Params) (float64, error) {
	return e.observe("gamma", e.inner.Gamma, p)
}

func (e *InstrumentedEngine) Theta(p pricing.Params) (float64, error) {
	return e.observe("theta", e.inner.Theta, p)
}

func (e *InstrumentedEngine) Vega(p pricing.Params) (float64, error) {
	return e.observe("vega", e.inner.Vega, p)
}

func (e *InstrumentedEngine) Rho(p pricing.Params) (float64, error) {
	return e.observe("rho", e.inner.Rho, p)
}

// Simulate forwards to the inner engine, or fails with
// pricing.ErrNoStatistics when it does not simulate.
func (e *InstrumentedEngine) Simulate(p pricing.Params) (pricing.Estimate, error) {
	sim, ok := e.inner.(pricing.Simulator)
	if !ok {
		return pricing.Estimate{}, pricing.ErrNoStatistics
	}

	start := time.Now()
	est, err := sim.Simulate(p)
	e.collector.ObserveEvaluation(string(e.inner.Kind()), "price", time.Since(start), err)
	if err == nil {
		e.collector.AddPaths(est.Paths)
	}
	return est, err
}

// Evaluate forwards boundary evaluations to a lattice inner engine and
// records them as the "evaluate" operation.
func (e *InstrumentedEngine) Evaluate(p pricing.Params) (pricing.LatticeValuation, error) {
	ev, ok := e.inner.(pricing.BoundaryEvaluator)
	if !ok {
		return pricing.LatticeValuation{}, fmt.Errorf("%s engine does not report an exercise boundary", e.inner.Kind())
	}

	start := time.Now()
	v, err := ev.Evaluate(p)
	e.collector.ObserveEvaluation(string(e.inner.Kind()), "evaluate", time.Since(start), err)
	return v, err
}
