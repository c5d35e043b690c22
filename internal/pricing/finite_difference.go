package pricing

import "math"

// Bump sizes for numerical Greeks.
const (
	spotBumpFraction = 0.01
	volBump          = 1e-4
	rateBump         = 1e-4
	oneDay           = 1.0 / daysPerYear
)

type priceFunc func(Params) (float64, error)

// Every helper below prices independent copies of p. The caller's Params
// value is never modified.

func fdDelta(price priceFunc, p Params) (float64, error) {
	h := spotBumpFraction * p.Spot
	up, down := p, p
	up.Spot += h
	down.Spot -= h

	vu, err := price(up)
	if err != nil {
		return 0, err
	}
	vd, err := price(down)
	if err != nil {
		return 0, err
	}
	return (vu - vd) / (2 * h), nil
}

func fdGamma(price priceFunc, p Params) (float64, error) {
	h := spotBumpFraction * p.Spot
	up, down := p, p
	up.Spot += h
	down.Spot -= h

	vu, err := price(up)
	if err != nil {
		return 0, err
	}
	v0, err := price(p)
	if err != nil {
		return 0, err
	}
	vd, err := price(down)
	if err != nil {
		return 0, err
	}
	return (vu - 2*v0 + vd) / (h * h), nil
}

// fdTheta steps expiry back one calendar day. Options with a day or less to
// run step back half their remaining life and rescale to a per-day figure.
func fdTheta(price priceFunc, p Params) (float64, error) {
	dt := oneDay
	if p.Expiry <= oneDay {
		dt = p.Expiry / 2
	}
	shorter := p
	shorter.Expiry -= dt

	v0, err := price(p)
	if err != nil {
		return 0, err
	}
	v1, err := price(shorter)
	if err != nil {
		return 0, err
	}
	return (v1 - v0) / dt * oneDay, nil
}

func fdVega(price priceFunc, p Params) (float64, error) {
	up := p
	up.Volatility += volBump
	vu, err := price(up)
	if err != nil {
		return 0, err
	}

	if p.Volatility <= volBump {
		v0, err := price(p)
		if err != nil {
			return 0, err
		}
		return (vu - v0) / volBump / 100, nil
	}

	down := p
	down.Volatility -= volBump
	vd, err := price(down)
	if err != nil {
		return 0, err
	}
	return (vu - vd) / (2 * volBump) / 100, nil
}

func fdRho(price priceFunc, p Params) (float64, error) {
	up, down := p, p
	up.Rate += rateBump
	down.Rate -= rateBump

	vu, err := price(up)
	if err != nil {
		return 0, err
	}
	vd, err := price(down)
	if err != nil {
		return 0, err
	}
	return (vu - vd) / (2 * rateBump) / 100, nil
}

// finiteDifference supplies the five Greeks to engines that only know how to
// price.
type finiteDifference struct {
	price priceFunc
}

func (f finiteDifference) Delta(p Params) (float64, error) { return validated(fdDelta, f.price, p) }
func (f finiteDifference) Gamma(p Params) (float64, error) { return validated(fdGamma, f.price, p) }
func (f finiteDifference) Theta(p Params) (float64, error) { return validated(fdTheta, f.price, p) }
func (f finiteDifference) Vega(p Params) (float64, error)  { return validated(fdVega, f.price, p) }
func (f finiteDifference) Rho(p Params) (float64, error)   { return validated(fdRho, f.price, p) }

func validated(greek func(priceFunc, Params) (float64, error), price priceFunc, p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	v, err := greek(price, p)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid("greek", "finite difference is not finite")
	}
	return v, nil
}
