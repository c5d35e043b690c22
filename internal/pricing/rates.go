package pricing

import "math"

// DiscountFactor is e^(-r·t) under continuous compounding.
func DiscountFactor(rate, t float64) float64 {
	return math.Exp(-rate * t)
}

// ForwardPrice is the no-arbitrage forward of an asset paying a continuous
// dividend yield.
func ForwardPrice(spot, rate, dividend, t float64) float64 {
	return spot * math.Exp((rate-dividend)*t)
}

// PresentValue discounts cashFlows[i] paid at times[i].
func PresentValue(cashFlows, times []float64, rate float64) (float64, error) {
	if len(cashFlows) != len(times) {
		return 0, invalid("times", "got %d times for %d cash flows", len(times), len(cashFlows))
	}
	pv := 0.0
	for i, cf := range cashFlows {
		if times[i] < 0 {
			return 0, invalid("times", "time %d is negative", i)
		}
		pv += cf * DiscountFactor(rate, times[i])
	}
	return pv, nil
}
