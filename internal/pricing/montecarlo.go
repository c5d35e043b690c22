package pricing

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Monte Carlo defaults.
const (
	DefaultMonteCarloPaths = 100000
	DefaultMonteCarloSteps = 252
	DefaultMonteCarloSeed  = 1

	confidenceZ = 1.96
)

// MonteCarloConfig parameterises the simulation. Zero values select defaults.
type MonteCarloConfig struct {
	// Paths is the requested sample count. Every requested path is simulated;
	// the remainder after dividing by Workers is spread over the first batches.
	Paths int
	// Steps is the number of time steps per path. For American params these
	// are also the exercise dates.
	Steps int
	// Antithetic pairs every path with its mirror and averages the two payoffs
	// into one sample.
	Antithetic bool
	// Workers is the number of parallel batches, capped at Paths. Zero means
	// runtime.GOMAXPROCS(0).
	Workers int
	// Seed fixes the random streams. Batch i draws from PCG(Seed, i), so
	// identical inputs reproduce identical estimates and finite-difference
	// bumps share random numbers. Zero selects DefaultMonteCarloSeed.
	Seed uint64
	// Logger receives per-batch debug statistics when set.
	Logger *slog.Logger
}

// Estimate is the outcome of one simulation.
type Estimate struct {
	// Price is the discounted sample mean.
	Price float64 `json:"price"`
	// Mean is the undiscounted sample mean of the payoff.
	Mean float64 `json:"mean"`
	// StdErr is the discounted standard error of Price.
	StdErr float64 `json:"std_err"`
	Lower  float64 `json:"ci_lower"`
	Upper  float64 `json:"ci_upper"`
	// Paths is the number of samples actually averaged.
	Paths   int `json:"paths"`
	Batches int `json:"batches"`
}

// Width is the span of the 95% confidence interval.
func (e Estimate) Width() float64 { return e.Upper - e.Lower }

// MonteCarloEngine prices by simulating risk-neutral geometric Brownian
// motion. American params are valued with Longstaff-Schwartz regression.
// Greeks come from finite differences on common random numbers.
type MonteCarloEngine struct {
	finiteDifference
	cfg MonteCarloConfig
}

// NewMonteCarloEngine validates cfg and returns the engine.
func NewMonteCarloEngine(cfg MonteCarloConfig) (*MonteCarloEngine, error) {
	if cfg.Paths == 0 {
		cfg.Paths = DefaultMonteCarloPaths
	}
	if cfg.Steps == 0 {
		cfg.Steps = DefaultMonteCarloSteps
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Seed == 0 {
		cfg.Seed = DefaultMonteCarloSeed
	}
	switch {
	case cfg.Paths < 1:
		return nil, invalid("paths", "must be at least 1, got %d", cfg.Paths)
	case cfg.Steps < 1:
		return nil, invalid("steps", "must be at least 1, got %d", cfg.Steps)
	case cfg.Workers < 1:
		return nil, invalid("workers", "must be at least 1, got %d", cfg.Workers)
	}
	if cfg.Workers > cfg.Paths {
		cfg.Workers = cfg.Paths
	}

	e := &MonteCarloEngine{cfg: cfg}
	e.finiteDifference = finiteDifference{price: e.Price}
	return e, nil
}

func (e *MonteCarloEngine) Kind() EngineKind            { return KindMonteCarlo }
func (e *MonteCarloEngine) SupportsEarlyExercise() bool { return true }
func (e *MonteCarloEngine) Config() MonteCarloConfig    { return e.cfg }

func (e *MonteCarloEngine) Price(p Params) (float64, error) {
	est, err := e.Simulate(p)
	if err != nil {
		return 0, err
	}
	return est.Price, nil
}

// batchSizes splits paths over workers, giving the first paths%workers
// batches one extra path.
func batchSizes(paths, workers int) []int {
	sizes := make([]int, workers)
	base, extra := paths/workers, paths%workers
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}
	return sizes
}

// accumulator holds the running sums of one batch.
type accumulator struct {
	sum   float64
	sumSq float64
	n     int
}

func (a *accumulator) add(x float64) {
	a.sum += x
	a.sumSq += x * x
	a.n++
}

func (a *accumulator) merge(b accumulator) {
	a.sum += b.sum
	a.sumSq += b.sumSq
	a.n += b.n
}

// Simulate runs every batch in parallel and returns price and statistics.
// Samples are payoffs expressed at maturity, so one discount factor e^(-rT)
// converts both the mean and the interval.
func (e *MonteCarloEngine) Simulate(p Params) (Estimate, error) {
	if err := p.Validate(); err != nil {
		return Estimate{}, err
	}

	sizes := batchSizes(e.cfg.Paths, e.cfg.Workers)
	results := make([]accumulator, len(sizes))

	var g errgroup.Group
	for i, n := range sizes {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(e.cfg.Seed, uint64(i)))
			var (
				acc accumulator
				err error
			)
			if p.Style == American {
				acc, err = e.americanBatch(p, n, rng)
			} else {
				acc = e.europeanBatch(p, n, rng)
			}
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			results[i] = acc
			if e.cfg.Logger != nil {
				e.cfg.Logger.Debug("monte carlo batch complete",
					"batch", i,
					"paths", acc.n,
					"mean", acc.sum/float64(max(acc.n, 1)),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Estimate{}, err
	}

	var total accumulator
	for _, r := range results {
		total.merge(r)
	}
	return summarize(total, math.Exp(-p.Rate*p.Expiry), len(sizes)), nil
}

func summarize(total accumulator, discount float64, batches int) Estimate {
	n := float64(total.n)
	mean := total.sum / n
	variance := 0.0
	if total.n > 1 {
		variance = math.Max((total.sumSq-n*mean*mean)/(n-1), 0)
	}
	stderr := math.Sqrt(variance / n)
	return Estimate{
		Price:   discount * mean,
		Mean:    mean,
		StdErr:  discount * stderr,
		Lower:   discount * (mean - confidenceZ*stderr),
		Upper:   discount * (mean + confidenceZ*stderr),
		Paths:   total.n,
		Batches: batches,
	}
}

// gbm holds the per-step log-space drift and diffusion.
type gbm struct {
	drift float64
	vol   float64
}

func newGBM(p Params, steps int) gbm {
	dt := p.Expiry / float64(steps)
	return gbm{
		drift: (p.Rate - p.Dividend - 0.5*p.Volatility*p.Volatility) * dt,
		vol:   p.Volatility * math.Sqrt(dt),
	}
}

func (e *MonteCarloEngine) europeanBatch(p Params, n int, rng *rand.Rand) accumulator {
	m := newGBM(p, e.cfg.Steps)
	logSpot := math.Log(p.Spot)

	var acc accumulator
	for range n {
		x, xa := logSpot, logSpot
		for range e.cfg.Steps {
			z := rng.NormFloat64()
			x += m.drift + m.vol*z
			xa += m.drift - m.vol*z
		}
		payoff := p.Payoff(math.Exp(x))
		if e.cfg.Antithetic {
			payoff = 0.5 * (payoff + p.Payoff(math.Exp(xa)))
		}
		acc.add(payoff)
	}
	return acc
}
