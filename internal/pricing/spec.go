package pricing

import "log/slog"

// EngineSpec describes an engine declaratively, as received from JSON
// requests, YAML batch files and CLI flags. Zero fields fall back to
// EngineDefaults.
type EngineSpec struct {
	Kind        EngineKind `json:"kind" yaml:"kind"`
	Steps       int        `json:"steps,omitempty" yaml:"steps,omitempty"`
	Extrapolate *bool      `json:"extrapolate,omitempty" yaml:"extrapolate,omitempty"`
	Paths       int        `json:"paths,omitempty" yaml:"paths,omitempty"`
	Antithetic  *bool      `json:"antithetic,omitempty" yaml:"antithetic,omitempty"`
	Workers     int        `json:"workers,omitempty" yaml:"workers,omitempty"`
	Seed        uint64     `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// OptionSpec is the wire form of Params used by JSON requests, YAML batch
// files and CLI flags.
type OptionSpec struct {
	Type       string  `json:"type" yaml:"type"`
	Style      string  `json:"style,omitempty" yaml:"style,omitempty"`
	Strike     float64 `json:"strike" yaml:"strike"`
	Expiry     float64 `json:"expiry" yaml:"expiry"`
	Spot       float64 `json:"spot" yaml:"spot"`
	Rate       float64 `json:"rate" yaml:"rate"`
	Volatility float64 `json:"volatility" yaml:"volatility"`
	Dividend   float64 `json:"dividend,omitempty" yaml:"dividend,omitempty"`
}

// Params parses the type and style names and validates the result.
func (s OptionSpec) Params() (Params, error) {
	typ, err := ParseOptionType(s.Type)
	if err != nil {
		return Params{}, err
	}
	style, err := ParseExerciseStyle(s.Style)
	if err != nil {
		return Params{}, err
	}
	p := Params{
		Type:       typ,
		Style:      style,
		Strike:     s.Strike,
		Expiry:     s.Expiry,
		Spot:       s.Spot,
		Rate:       s.Rate,
		Volatility: s.Volatility,
		Dividend:   s.Dividend,
	}
	return p, p.Validate()
}

// EngineDefaults supplies values for fields an EngineSpec leaves unset.
type EngineDefaults struct {
	Lattice    LatticeConfig
	MonteCarlo MonteCarloConfig
}

// DefaultEngineDefaults mirrors the engines' own defaults: a 100-step
// extrapolated lattice and a 100,000-path antithetic simulation.
func DefaultEngineDefaults() EngineDefaults {
	return EngineDefaults{
		Lattice: LatticeConfig{Steps: DefaultLatticeSteps, Extrapolate: true},
		MonteCarlo: MonteCarloConfig{
			Paths:      DefaultMonteCarloPaths,
			Steps:      DefaultMonteCarloSteps,
			Antithetic: true,
			Seed:       DefaultMonteCarloSeed,
		},
	}
}

// Build constructs the engine using DefaultEngineDefaults.
func (s EngineSpec) Build() (Engine, error) {
	return s.BuildWith(DefaultEngineDefaults(), nil)
}

// BuildWith constructs the engine, filling unset fields from d. logger is
// handed to engines that log.
func (s EngineSpec) BuildWith(d EngineDefaults, logger *slog.Logger) (Engine, error) {
	kind := s.Kind
	if kind == "" {
		kind = KindAnalytic
	}
	kind, err := ParseEngineKind(string(kind))
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindLattice:
		cfg := d.Lattice
		if s.Steps != 0 {
			cfg.Steps = s.Steps
		}
		if s.Extrapolate != nil {
			cfg.Extrapolate = *s.Extrapolate
		}
		return NewLatticeEngine(cfg)
	case KindMonteCarlo:
		cfg := d.MonteCarlo
		if s.Paths != 0 {
			cfg.Paths = s.Paths
		}
		if s.Steps != 0 {
			cfg.Steps = s.Steps
		}
		if s.Antithetic != nil {
			cfg.Antithetic = *s.Antithetic
		}
		if s.Workers != 0 {
			cfg.Workers = s.Workers
		}
		if s.Seed != 0 {
			cfg.Seed = s.Seed
		}
		if logger != nil {
			cfg.Logger = logger
		}
		return NewMonteCarloEngine(cfg)
	default:
		return NewAnalyticEngine(), nil
	}
}

// Spec reports the closed-form engine, which has no parameters.
func (*AnalyticEngine) Spec() EngineSpec { return EngineSpec{Kind: KindAnalytic} }

// Spec reports the tree's effective configuration.
func (e *LatticeEngine) Spec() EngineSpec {
	extrapolate := e.cfg.Extrapolate
	return EngineSpec{Kind: KindLattice, Steps: e.cfg.Steps, Extrapolate: &extrapolate}
}

// Spec reports the simulation's effective configuration, including the
// worker count, which decides how paths are split into seeded batches.
func (e *MonteCarloEngine) Spec() EngineSpec {
	antithetic := e.cfg.Antithetic
	return EngineSpec{
		Kind:       KindMonteCarlo,
		Steps:      e.cfg.Steps,
		Paths:      e.cfg.Paths,
		Antithetic: &antithetic,
		Workers:    e.cfg.Workers,
		Seed:       e.cfg.Seed,
	}
}

// SpecOf returns the effective configuration of e with every default
// resolved, so building it again reproduces e. Decorators exposing
// Unwrap() Engine are looked through.
func SpecOf(e Engine) EngineSpec {
	if e == nil {
		return EngineSpec{}
	}
	kind := e.Kind()
	for e != nil {
		if s, ok := e.(interface{ Spec() EngineSpec }); ok {
			return s.Spec()
		}
		u, ok := e.(interface{ Unwrap() Engine })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return EngineSpec{Kind: kind}
}
