package pricing

import (
	"math"
)

// DefaultLatticeSteps is used when LatticeConfig.Steps is zero.
const DefaultLatticeSteps = 100

// LatticeConfig parameterises the binomial tree.
type LatticeConfig struct {
	// Steps is the number of time steps N. Zero selects DefaultLatticeSteps.
	Steps int
	// Extrapolate reports 2·V(2N) − V(N) instead of V(N).
	Extrapolate bool
}

// LatticeEngine prices on a Cox-Ross-Rubinstein binomial tree. American
// params are checked for early exercise at every node. Greeks come from
// finite differences, each bump rebuilding the full tree.
type LatticeEngine struct {
	finiteDifference
	cfg LatticeConfig
}

// NewLatticeEngine validates cfg and returns the engine.
func NewLatticeEngine(cfg LatticeConfig) (*LatticeEngine, error) {
	if cfg.Steps == 0 {
		cfg.Steps = DefaultLatticeSteps
	}
	if cfg.Steps < 1 {
		return nil, invalid("steps", "must be at least 1, got %d", cfg.Steps)
	}
	e := &LatticeEngine{cfg: cfg}
	e.finiteDifference = finiteDifference{price: e.Price}
	return e, nil
}

func (e *LatticeEngine) Kind() EngineKind            { return KindLattice }
func (e *LatticeEngine) SupportsEarlyExercise() bool { return true }
func (e *LatticeEngine) Config() LatticeConfig       { return e.cfg }

// BoundaryPoint is the critical underlying price at one exercise date: the
// highest exercised node for puts, the lowest for calls.
type BoundaryPoint struct {
	Time float64 `json:"time"`
	Spot float64 `json:"spot"`
}

// LatticeValuation is the detailed result of one lattice evaluation.
type LatticeValuation struct {
	Price float64 `json:"price"`
	// Coarse is V(N). Fine is V(2N) and is only set when extrapolating.
	Coarse       float64 `json:"coarse"`
	Fine         float64 `json:"fine,omitempty"`
	Steps        int     `json:"steps"`
	Extrapolated bool    `json:"extrapolated"`
	// ExerciseBoundary is empty for European params and for American params
	// where early exercise is never optimal. It comes from the finest tree
	// built.
	ExerciseBoundary []BoundaryPoint `json:"exercise_boundary,omitempty"`
}

func (e *LatticeEngine) Price(p Params) (float64, error) {
	v, err := e.evaluate(p, false)
	if err != nil {
		return 0, err
	}
	return v.Price, nil
}

// Evaluate prices p and records the early-exercise boundary.
func (e *LatticeEngine) Evaluate(p Params) (LatticeValuation, error) {
	return e.evaluate(p, true)
}

func (e *LatticeEngine) evaluate(p Params, withBoundary bool) (LatticeValuation, error) {
	if err := p.Validate(); err != nil {
		return LatticeValuation{}, err
	}

	n := e.cfg.Steps
	coarse, boundary, err := backwardInduct(p, n, withBoundary && !e.cfg.Extrapolate)
	if err != nil {
		return LatticeValuation{}, err
	}
	out := LatticeValuation{Price: coarse, Coarse: coarse, Steps: n, ExerciseBoundary: boundary}
	if !e.cfg.Extrapolate {
		return out, nil
	}

	fine, boundary, err := backwardInduct(p, 2*n, withBoundary)
	if err != nil {
		return LatticeValuation{}, err
	}
	out.Fine = fine
	out.Price = 2*fine - coarse
	out.Extrapolated = true
	out.ExerciseBoundary = boundary
	return out, nil
}

// crr holds the per-step tree parameters.
type crr struct {
	dt   float64
	logU float64 // ln u; d = 1/u
	p    float64 // risk-neutral up probability
	disc float64 // one-step discount e^(-r·dt)
}

func newCRR(p Params, steps int) (crr, error) {
	dt := p.Expiry / float64(steps)
	logU := p.Volatility * math.Sqrt(dt)
	u := math.Exp(logU)
	if math.IsInf(u, 1) {
		return crr{}, invalid("volatility", "up factor overflows with volatility %g and %d steps", p.Volatility, steps)
	}
	d := 1 / u
	prob := (math.Exp((p.Rate-p.Dividend)*dt) - d) / (u - d)
	if math.IsNaN(prob) || prob < 0 || prob > 1 {
		return crr{}, invalid("steps", "risk-neutral probability %g outside [0,1] with %d steps", prob, steps)
	}
	return crr{dt: dt, logU: logU, p: prob, disc: math.Exp(-p.Rate * dt)}, nil
}

// nodeSpot is S·u^node·d^(step−node), computed in log space so no
// intermediate ratio can overflow.
func (t crr) nodeSpot(logSpot float64, step, node int) float64 {
	return math.Exp(logSpot + float64(2*node-step)*t.logU)
}

// backwardInduct rolls one value row back from expiry. Node prices are
// recomputed rather than stored, so memory is linear in steps.
func backwardInduct(p Params, steps int, withBoundary bool) (float64, []BoundaryPoint, error) {
	t, err := newCRR(p, steps)
	if err != nil {
		return 0, nil, err
	}
	logSpot := math.Log(p.Spot)

	values := make([]float64, steps+1)
	for j := 0; j <= steps; j++ {
		s := t.nodeSpot(logSpot, steps, j)
		if math.IsInf(s, 1) {
			return 0, nil, invalid("volatility", "terminal price overflows with volatility %g and %d steps", p.Volatility, steps)
		}
		values[j] = p.Payoff(s)
	}

	american := p.Style == American
	var boundary []BoundaryPoint
	for i := steps - 1; i >= 0; i-- {
		critical := math.NaN()
		for j := 0; j <= i; j++ {
			// values[j+1] still holds step i+1 when values[j] is overwritten.
			v := t.disc * (t.p*values[j+1] + (1-t.p)*values[j])
			if american {
				s := t.nodeSpot(logSpot, i, j)
				if ex := p.Payoff(s); ex > v {
					v = ex
					critical = boundarySpot(p.Type, critical, s)
				}
			}
			values[j] = v
		}
		if withBoundary && !math.IsNaN(critical) {
			boundary = append(boundary, BoundaryPoint{Time: float64(i) * t.dt, Spot: critical})
		}
	}

	if math.IsNaN(values[0]) || math.IsInf(values[0], 0) {
		return 0, nil, invalid("volatility", "tree value is not finite with volatility %g and %d steps", p.Volatility, steps)
	}

	// Collected from expiry backwards; report in time order.
	for l, r := 0, len(boundary)-1; l < r; l, r = l+1, r-1 {
		boundary[l], boundary[r] = boundary[r], boundary[l]
	}
	return values[0], boundary, nil
}

func boundarySpot(typ OptionType, current, s float64) float64 {
	if math.IsNaN(current) {
		return s
	}
	if typ == Put {
		return math.Max(current, s)
	}
	return math.Min(current, s)
}
