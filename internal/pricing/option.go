package pricing

import (
	"sync"
)

// Option is a single-underlying vanilla option with a swappable pricing
// engine. All methods are safe for concurrent use; pricing queries read a
// snapshot of the parameters and never modify the option.
type Option struct {
	mu     sync.RWMutex
	params Params
	engine Engine
}

// NewOption validates p and returns an option without an engine.
func NewOption(p Params) (*Option, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Option{params: p}, nil
}

// NewEuropeanOption builds an option exercisable only at expiry.
func NewEuropeanOption(typ OptionType, strike, expiry, spot, rate, volatility, dividend float64) (*Option, error) {
	return NewOption(Params{
		Type:       typ,
		Style:      European,
		Strike:     strike,
		Expiry:     expiry,
		Spot:       spot,
		Rate:       rate,
		Volatility: volatility,
		Dividend:   dividend,
	})
}

// NewAmericanOption builds an option exercisable at any time up to expiry.
func NewAmericanOption(typ OptionType, strike, expiry, spot, rate, volatility, dividend float64) (*Option, error) {
	return NewOption(Params{
		Type:       typ,
		Style:      American,
		Strike:     strike,
		Expiry:     expiry,
		Spot:       spot,
		Rate:       rate,
		Volatility: volatility,
		Dividend:   dividend,
	})
}

// Params returns a copy of the current parameters.
func (o *Option) Params() Params {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.params
}

func (o *Option) Type() OptionType        { return o.Params().Type }
func (o *Option) Style() ExerciseStyle    { return o.Params().Style }
func (o *Option) Strike() float64         { return o.Params().Strike }
func (o *Option) Expiry() float64         { return o.Params().Expiry }
func (o *Option) Spot() float64           { return o.Params().Spot }
func (o *Option) Rate() float64           { return o.Params().Rate }
func (o *Option) Volatility() float64     { return o.Params().Volatility }
func (o *Option) Dividend() float64       { return o.Params().Dividend }
func (o *Option) SetSpot(v float64) error { return o.update(func(p *Params) { p.Spot = v }) }
func (o *Option) SetRate(v float64) error { return o.update(func(p *Params) { p.Rate = v }) }

func (o *Option) SetVolatility(v float64) error {
	return o.update(func(p *Params) { p.Volatility = v })
}

func (o *Option) SetDividend(v float64) error {
	return o.update(func(p *Params) { p.Dividend = v })
}

func (o *Option) SetExpiry(v float64) error {
	return o.update(func(p *Params) { p.Expiry = v })
}

// update applies mutate to a copy and commits only if the copy validates.
func (o *Option) update(mutate func(*Params)) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	next := o.params
	mutate(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	o.params = next
	return nil
}

// SetPricingEngine attaches e. A nil engine detaches the current one.
func (o *Option) SetPricingEngine(e Engine) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.engine = e
}

// Engine returns the attached engine, or nil.
func (o *Option) Engine() Engine {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.engine
}

func (o *Option) snapshot() (Engine, Params, error) {
	o.mu.RLock()
	e, p := o.engine, o.params
	o.mu.RUnlock()

	if e == nil {
		return nil, Params{}, ErrEngineNotSet
	}
	if err := checkExercise(e, p); err != nil {
		return nil, Params{}, err
	}
	return e, p, nil
}

func (o *Option) eval(f func(Engine, Params) (float64, error)) (float64, error) {
	e, p, err := o.snapshot()
	if err != nil {
		return 0, err
	}
	return f(e, p)
}

func (o *Option) Price() (float64, error) { return o.eval(Engine.Price) }
func (o *Option) Delta() (float64, error) { return o.eval(Engine.Delta) }
func (o *Option) Gamma() (float64, error) { return o.eval(Engine.Gamma) }
func (o *Option) Theta() (float64, error) { return o.eval(Engine.Theta) }
func (o *Option) Vega() (float64, error)  { return o.eval(Engine.Vega) }
func (o *Option) Rho() (float64, error)   { return o.eval(Engine.Rho) }

// Greeks evaluates every sensitivity against one parameter snapshot.
func (o *Option) Greeks() (Greeks, error) {
	e, p, err := o.snapshot()
	if err != nil {
		return Greeks{}, err
	}
	return ComputeGreeks(e, p)
}

// Estimate runs the attached engine's simulation and returns its statistics.
// Deterministic engines yield ErrNoStatistics.
func (o *Option) Estimate() (Estimate, error) {
	e, p, err := o.snapshot()
	if err != nil {
		return Estimate{}, err
	}
	sim, ok := e.(Simulator)
	if !ok {
		return Estimate{}, ErrNoStatistics
	}
	return sim.Simulate(p)
}
