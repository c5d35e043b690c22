package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const daysPerYear = 365.0

// AnalyticEngine prices with the Black-Scholes-Merton closed form.
//
// The closed form has no early-exercise premium. Called directly with
// American params it returns the European value; Option refuses that
// combination with ErrEarlyExerciseUnsupported.
type AnalyticEngine struct{}

// NewAnalyticEngine returns the closed-form engine.
func NewAnalyticEngine() *AnalyticEngine { return &AnalyticEngine{} }

func (*AnalyticEngine) Kind() EngineKind            { return KindAnalytic }
func (*AnalyticEngine) SupportsEarlyExercise() bool { return false }

// bsm caches the terms shared by the price and every Greek.
type bsm struct {
	p      Params
	sqrtT  float64
	d1, d2 float64
	dfq    float64 // e^(-qT)
	dfr    float64 // e^(-rT)
}

func newBSM(p Params) (bsm, error) {
	if err := p.Validate(); err != nil {
		return bsm{}, err
	}
	sqrtT := math.Sqrt(p.Expiry)
	d1 := (math.Log(p.Spot/p.Strike) + (p.Rate-p.Dividend+0.5*p.Volatility*p.Volatility)*p.Expiry) /
		(p.Volatility * sqrtT)
	if math.IsNaN(d1) {
		return bsm{}, invalid("d1", "undefined for the given inputs")
	}
	return bsm{
		p:     p,
		sqrtT: sqrtT,
		d1:    d1,
		d2:    d1 - p.Volatility*sqrtT,
		dfq:   math.Exp(-p.Dividend * p.Expiry),
		dfr:   math.Exp(-p.Rate * p.Expiry),
	}, nil
}

func normCDF(x float64) float64 { return distuv.UnitNormal.CDF(x) }
func normPDF(x float64) float64 { return distuv.UnitNormal.Prob(x) }

func (m bsm) price() float64 {
	p := m.p
	if p.Type == Call {
		return p.Spot*m.dfq*normCDF(m.d1) - p.Strike*m.dfr*normCDF(m.d2)
	}
	return p.Strike*m.dfr*normCDF(-m.d2) - p.Spot*m.dfq*normCDF(-m.d1)
}

func (e *AnalyticEngine) Price(p Params) (float64, error) {
	m, err := newBSM(p)
	if err != nil {
		return 0, err
	}
	return m.price(), nil
}

func (e *AnalyticEngine) Delta(p Params) (float64, error) {
	m, err := newBSM(p)
	if err != nil {
		return 0, err
	}
	if p.Type == Call {
		return m.dfq * normCDF(m.d1), nil
	}
	return m.dfq * (normCDF(m.d1) - 1), nil
}

func (e *AnalyticEngine) Gamma(p Params) (float64, error) {
	m, err := newBSM(p)
	if err != nil {
		return 0, err
	}
	return m.dfq * normPDF(m.d1) / (p.Spot * p.Volatility * m.sqrtT), nil
}

// Theta is per calendar day.
func (e *AnalyticEngine) Theta(p Params) (float64, error) {
	m, err := newBSM(p)
	if err != nil {
		return 0, err
	}
	decay := -p.Spot * m.dfq * normPDF(m.d1) * p.Volatility / (2 * m.sqrtT)
	var annual float64
	if p.Type == Call {
		annual = decay -
			p.Rate*p.Strike*m.dfr*normCDF(m.d2) +
			p.Dividend*p.Spot*m.dfq*normCDF(m.d1)
	} else {
		annual = decay +
			p.Rate*p.Strike*m.dfr*normCDF(-m.d2) -
			p.Dividend*p.Spot*m.dfq*normCDF(-m.d1)
	}
	return annual / daysPerYear, nil
}

// Vega is per volatility point.
func (e *AnalyticEngine) Vega(p Params) (float64, error) {
	m, err := newBSM(p)
	if err != nil {
		return 0, err
	}
	return p.Spot * m.dfq * normPDF(m.d1) * m.sqrtT / 100, nil
}

// Rho is per 1% rate move.
func (e *AnalyticEngine) Rho(p Params) (float64, error) {
	m, err := newBSM(p)
	if err != nil {
		return 0, err
	}
	if p.Type == Call {
		return p.Strike * p.Expiry * m.dfr * normCDF(m.d2) / 100, nil
	}
	return -p.Strike * p.Expiry * m.dfr * normCDF(-m.d2) / 100, nil
}
