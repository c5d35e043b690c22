package pricing

import (
	"errors"
	"fmt"
	"math"
)

// Implied volatility search settings.
const (
	MinImpliedVolatility = 1e-4
	MaxImpliedVolatility = 5.0

	ivTolerance     = 1e-8
	ivMaxIterations = 200

	machineEpsilon = 2.220446049250313e-16
)

// ImpliedVolatility finds the volatility at which engine reproduces
// marketPrice for p. p.Volatility is ignored. The search is bracketed on
// [MinImpliedVolatility, MaxImpliedVolatility] and uses Brent's method.
func ImpliedVolatility(engine Engine, p Params, marketPrice float64) (float64, error) {
	if engine == nil {
		return 0, ErrEngineNotSet
	}
	if err := checkExercise(engine, p); err != nil {
		return 0, err
	}
	if math.IsNaN(marketPrice) || marketPrice <= 0 {
		return 0, invalid("market_price", "must be positive, got %g", marketPrice)
	}
	p.Volatility = MinImpliedVolatility
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if p.Style == European {
		lo, hi := europeanBounds(p)
		if marketPrice < lo || marketPrice > hi {
			return 0, invalid("market_price", "%g outside no-arbitrage bounds [%g, %g]", marketPrice, lo, hi)
		}
	}

	objective := func(vol float64) (float64, error) {
		q := p
		q.Volatility = vol
		v, err := engine.Price(q)
		if err != nil {
			return 0, err
		}
		return v - marketPrice, nil
	}

	// Lattices reject volatilities too small for their step size; raise the
	// lower bracket until the engine accepts it.
	lo := MinImpliedVolatility
	for {
		_, err := objective(lo)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrInvalidParameter) || 2*lo >= MaxImpliedVolatility {
			return 0, err
		}
		lo *= 2
	}
	return brent(objective, lo, MaxImpliedVolatility, ivTolerance, ivMaxIterations)
}

func europeanBounds(p Params) (lo, hi float64) {
	fwdSpot := p.Spot * math.Exp(-p.Dividend*p.Expiry)
	pvStrike := p.Strike * math.Exp(-p.Rate*p.Expiry)
	if p.Type == Call {
		return math.Max(fwdSpot-pvStrike, 0), fwdSpot
	}
	return math.Max(pvStrike-fwdSpot, 0), pvStrike
}

// brent finds a root of f in [a, b], which must bracket a sign change.
func brent(f func(float64) (float64, error), a, b, tol float64, maxIter int) (float64, error) {
	fa, err := f(a)
	if err != nil {
		return 0, err
	}
	fb, err := f(b)
	if err != nil {
		return 0, err
	}
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if fa*fb > 0 {
		return 0, invalid("market_price", "not attainable for volatility in [%g, %g]", a, b)
	}

	c, fc := b, fb
	var d, e float64
	for range maxIter {
		if fb*fc > 0 {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*machineEpsilon*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Inverse quadratic interpolation, or secant when a == c.
			var p, q float64
			s := fb / fa
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				qa := fa / fc
				r := fb / fc
				p = s * (2*xm*qa*(qa-r) - (b-a)*(r-1))
				q = (qa - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol1*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		if fb, err = f(b); err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("implied volatility after %d iterations: %w", maxIter, ErrNoConvergence)
}
