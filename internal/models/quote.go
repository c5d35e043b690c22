package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/optionlab/pricer/internal/pricing"
)

// ErrNonFinite is returned by NewQuote when a value cannot be stored as a decimal.
var ErrNonFinite = errors.New("quote value is not finite")

// QuotePrecision is the number of decimal places kept for stored values.
const QuotePrecision = 6

// Quote is a persisted pricing result
type Quote struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	ClientID   string          `json:"client_id,omitempty"` // Token subject when auth is enabled
	Engine     string          `json:"engine"`              // analytic, lattice or montecarlo
	EngineSpec json.RawMessage `json:"engine_spec"`         // Effective engine configuration, defaults applied
	OptionType string          `json:"option_type"`
	Style      string          `json:"style"`
	Strike     float64         `json:"strike"`
	Expiry     float64         `json:"expiry"`
	Spot       float64         `json:"spot"`
	Rate       float64         `json:"rate"`
	Volatility float64         `json:"volatility"`
	Dividend   float64         `json:"dividend"`

	Price decimal.Decimal     `json:"price"`
	Delta decimal.NullDecimal `json:"delta"`
	Gamma decimal.NullDecimal `json:"gamma"`
	Theta decimal.NullDecimal `json:"theta"` // Per calendar day
	Vega  decimal.NullDecimal `json:"vega"`  // Per volatility point
	Rho   decimal.NullDecimal `json:"rho"`   // Per 1% rate move

	// Monte Carlo only
	StdErr  decimal.NullDecimal `json:"std_err"`
	CILower decimal.NullDecimal `json:"ci_lower"`
	CIUpper decimal.NullDecimal `json:"ci_upper"`
	Paths   *int                `json:"paths,omitempty"`
}

// NewQuote builds an unsaved quote from one pricing result. spec should be
// the engine's effective configuration (see pricing.SpecOf) so the quote can
// be reproduced. greeks and estimate are optional.
func NewQuote(spec pricing.EngineSpec, kind pricing.EngineKind, p pricing.Params, price float64, greeks *pricing.Greeks, estimate *pricing.Estimate) (*Quote, error) {
	if err := checkFinite(price, greeks, estimate); err != nil {
		return nil, err
	}

	spec.Kind = kind
	rawSpec, err := json.Marshal(spec)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		Engine:     string(kind),
		EngineSpec: rawSpec,
		OptionType: p.Type.String(),
		Style:      p.Style.String(),
		Strike:     p.Strike,
		Expiry:     p.Expiry,
		Spot:       p.Spot,
		Rate:       p.Rate,
		Volatility: p.Volatility,
		Dividend:   p.Dividend,
		Price:      Round(price),
	}

	if greeks != nil {
		q.Delta = nullRound(greeks.Delta)
		q.Gamma = nullRound(greeks.Gamma)
		q.Theta = nullRound(greeks.Theta)
		q.Vega = nullRound(greeks.Vega)
		q.Rho = nullRound(greeks.Rho)
	}

	if estimate != nil {
		q.StdErr = nullRound(estimate.StdErr)
		q.CILower = nullRound(estimate.Lower)
		q.CIUpper = nullRound(estimate.Upper)
		paths := estimate.Paths
		q.Paths = &paths
	}

	return q, nil
}

func checkFinite(price float64, greeks *pricing.Greeks, estimate *pricing.Estimate) error {
	values := map[string]float64{"price": price}
	if greeks != nil {
		values["delta"] = greeks.Delta
		values["gamma"] = greeks.Gamma
		values["theta"] = greeks.Theta
		values["vega"] = greeks.Vega
		values["rho"] = greeks.Rho
	}
	if estimate != nil {
		values["std_err"] = estimate.StdErr
		values["ci_lower"] = estimate.Lower
		values["ci_upper"] = estimate.Upper
	}
	for field, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s = %v: %w", field, v, ErrNonFinite)
		}
	}
	return nil
}

// Round converts v to a decimal with QuotePrecision places.
func Round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(QuotePrecision)
}

func nullRound(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(Round(v))
}
