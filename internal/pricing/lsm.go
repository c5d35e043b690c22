package pricing

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// lsmBasis is the number of regression functions: 1, x, x² with x = S/K.
const lsmBasis = 3

// americanBatch values n samples with Longstaff-Schwartz. The regression
// runs backwards in time, so each path's Brownian motion is drawn at expiry
// first and walked back to every exercise date with a Brownian bridge. Only
// the current date is held, keeping memory linear in paths. Antithetic
// mirrors negate every draw, enter the regression as ordinary paths and are
// averaged with their twin afterwards.
func (e *MonteCarloEngine) americanBatch(p Params, n int, rng *rand.Rand) (accumulator, error) {
	steps := e.cfg.Steps
	dt := p.Expiry / float64(steps)
	width := 1
	if e.cfg.Antithetic {
		width = 2
	}
	count := n * width

	logSpot := math.Log(p.Spot)
	drift := p.Rate - p.Dividend - 0.5*p.Volatility*p.Volatility
	spotAt := func(w, t float64) float64 {
		return math.Exp(logSpot + drift*t + p.Volatility*w)
	}

	// w[j] is path j's Brownian motion at the date being processed.
	w := make([]float64, count)
	sqrtT := math.Sqrt(p.Expiry)
	for i := range n {
		z := rng.NormFloat64()
		w[i*width] = sqrtT * z
		if width == 2 {
			w[i*width+1] = -sqrtT * z
		}
	}

	// value[j] is path j's cash flow grown to maturity at the risk-free rate.
	value := make([]float64, count)
	for j := range value {
		value[j] = p.Payoff(spotAt(w[j], p.Expiry))
	}

	var (
		itm    []int
		xs, ys []float64
		spots  = make([]float64, count)
	)
	for k := steps - 1; k >= 1; k-- {
		t := float64(k) * dt
		later := t + dt
		// W(t) given W(later) and W(0) = 0.
		scale := t / later
		sd := math.Sqrt(t * dt / later)
		for i := range n {
			z := rng.NormFloat64()
			j := i * width
			w[j] = w[j]*scale + sd*z
			if width == 2 {
				w[j+1] = w[j+1]*scale - sd*z
			}
		}

		growth := math.Exp(p.Rate * (p.Expiry - t))
		itm, xs, ys = itm[:0], xs[:0], ys[:0]
		for j := range count {
			s := spotAt(w[j], t)
			spots[j] = s
			if p.Payoff(s) > 0 {
				itm = append(itm, j)
				xs = append(xs, s/p.Strike)
				ys = append(ys, value[j]/growth)
			}
		}
		if len(itm) < lsmBasis {
			continue
		}

		beta, ok, err := regressContinuation(xs, ys)
		if err != nil {
			return accumulator{}, fmt.Errorf("step %d: %w", k, err)
		}
		if !ok {
			continue
		}
		for idx, j := range itm {
			x := xs[idx]
			continuation := beta[0] + beta[1]*x + beta[2]*x*x
			if ex := p.Payoff(spots[j]); ex > continuation {
				value[j] = ex * growth
			}
		}
	}

	var acc accumulator
	for i := range n {
		if width == 2 {
			acc.add(0.5 * (value[2*i] + value[2*i+1]))
		} else {
			acc.add(value[i])
		}
	}
	return acc, nil
}

// regressContinuation fits ys ≈ β0 + β1·x + β2·x² by least squares. ok is
// false when the design is singular and the step must be skipped.
func regressContinuation(xs, ys []float64) (beta [lsmBasis]float64, ok bool, err error) {
	rows := len(xs)
	data := make([]float64, 0, rows*lsmBasis)
	for _, x := range xs {
		data = append(data, 1, x, x*x)
	}

	var coef mat.VecDense
	if err := coef.SolveVec(mat.NewDense(rows, lsmBasis, data), mat.NewVecDense(rows, ys)); err != nil {
		var cond mat.Condition
		switch {
		case errors.As(err, &cond) && !math.IsInf(float64(cond), 1):
			// Ill-conditioned but solved.
		case errors.As(err, &cond), errors.Is(err, mat.ErrSingular):
			return beta, false, nil
		default:
			return beta, false, fmt.Errorf("least squares: %w", err)
		}
	}
	for i := range beta {
		beta[i] = coef.AtVec(i)
		if math.IsNaN(beta[i]) || math.IsInf(beta[i], 0) {
			return beta, false, nil
		}
	}
	return beta, true, nil
}
