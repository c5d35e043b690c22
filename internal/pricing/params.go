package pricing

import (
	"fmt"
	"math"
	"strings"
)

// OptionType distinguishes calls from puts.
type OptionType int

const (
	Call OptionType = iota
	Put
)

func (t OptionType) String() string {
	switch t {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return fmt.Sprintf("OptionType(%d)", int(t))
	}
}

// ParseOptionType accepts "call"/"put" in any case.
func ParseOptionType(raw string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return 0, invalid("type", "must be call or put, got %q", raw)
	}
}

// ExerciseStyle is European (expiry only) or American (any time up to expiry).
type ExerciseStyle int

const (
	European ExerciseStyle = iota
	American
)

func (s ExerciseStyle) String() string {
	switch s {
	case European:
		return "european"
	case American:
		return "american"
	default:
		return fmt.Sprintf("ExerciseStyle(%d)", int(s))
	}
}

// ParseExerciseStyle accepts "european"/"american" in any case. Empty means European.
func ParseExerciseStyle(raw string) (ExerciseStyle, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "european", "eu":
		return European, nil
	case "american", "us":
		return American, nil
	default:
		return 0, invalid("style", "must be european or american, got %q", raw)
	}
}

// Params is an immutable snapshot of everything an engine needs to value one
// option. Engines receive Params by value, so bumping a field for a finite
// difference never touches the Option it came from.
type Params struct {
	Type       OptionType
	Style      ExerciseStyle
	Strike     float64 // K
	Expiry     float64 // T in years
	Spot       float64 // S
	Rate       float64 // r, continuously compounded
	Volatility float64 // sigma, annualised
	Dividend   float64 // q, continuous yield
}

// Validate reports the first violated invariant.
func (p Params) Validate() error {
	if p.Type != Call && p.Type != Put {
		return invalid("type", "unknown option type %d", int(p.Type))
	}
	if p.Style != European && p.Style != American {
		return invalid("style", "unknown exercise style %d", int(p.Style))
	}
	if err := positive("strike", p.Strike); err != nil {
		return err
	}
	if err := positive("expiry", p.Expiry); err != nil {
		return err
	}
	if err := positive("spot", p.Spot); err != nil {
		return err
	}
	if math.IsNaN(p.Rate) || math.IsInf(p.Rate, 0) {
		return invalid("rate", "must be finite")
	}
	if err := positive("volatility", p.Volatility); err != nil {
		return err
	}
	if math.IsNaN(p.Dividend) || math.IsInf(p.Dividend, 0) || p.Dividend < 0 {
		return invalid("dividend", "must be non-negative, got %g", p.Dividend)
	}
	return nil
}

// Payoff is the exercise value at the given underlying price.
func (p Params) Payoff(underlying float64) float64 {
	if p.Type == Call {
		return math.Max(underlying-p.Strike, 0)
	}
	return math.Max(p.Strike-underlying, 0)
}

func positive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return invalid(field, "must be positive, got %g", v)
	}
	return nil
}
