package api

import (
	"fmt"
	"math"
	"runtime"

	"github.com/optionlab/pricer/internal/pricing"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Limits on the work one request may ask for.
const (
	// maxTreeSteps counts the finest tree built, after extrapolation doubles
	// the configured steps.
	maxTreeSteps = 5_000
	maxPaths     = 5_000_000
	maxPathSteps = 500_000_000
	maxWorkers   = 256 // or GOMAXPROCS when larger

	// American simulation keeps every sample of a batch in memory and runs
	// one regression per exercise date.
	maxAmericanSamples   = 2_000_000
	maxAmericanPathSteps = 100_000_000
)

// ValidateEngine rejects engines too large to serve inline. spec must be
// the effective configuration (see pricing.SpecOf) so that defaults count
// against the limits too.
func ValidateEngine(spec pricing.EngineSpec, style pricing.ExerciseStyle) error {
	switch spec.Kind {
	case pricing.KindLattice:
		tree := spec.Steps
		if spec.Extrapolate != nil && *spec.Extrapolate {
			tree *= 2
		}
		if tree > maxTreeSteps {
			return ValidationError{
				Field:   "engine.steps",
				Message: fmt.Sprintf("tree of %d steps exceeds %d (extrapolation doubles steps)", tree, maxTreeSteps),
			}
		}
	case pricing.KindMonteCarlo:
		if limit := max(maxWorkers, runtime.GOMAXPROCS(0)); spec.Workers > limit {
			return ValidationError{Field: "engine.workers", Message: fmt.Sprintf("must be at most %d", limit)}
		}
		if spec.Paths > maxPaths {
			return ValidationError{Field: "engine.paths", Message: fmt.Sprintf("must be at most %d", maxPaths)}
		}
		work := int64(spec.Paths) * int64(spec.Steps)
		if work > maxPathSteps {
			return ValidationError{
				Field:   "engine.steps",
				Message: fmt.Sprintf("paths x steps = %d exceeds %d", work, maxPathSteps),
			}
		}
		if style != pricing.American {
			return nil
		}
		samples := spec.Paths
		if spec.Antithetic != nil && *spec.Antithetic {
			samples *= 2
		}
		if samples > maxAmericanSamples {
			return ValidationError{
				Field:   "engine.paths",
				Message: fmt.Sprintf("american simulation of %d samples exceeds %d", samples, maxAmericanSamples),
			}
		}
		if work > maxAmericanPathSteps {
			return ValidationError{
				Field:   "engine.steps",
				Message: fmt.Sprintf("american paths x steps = %d exceeds %d", work, maxAmericanPathSteps),
			}
		}
	}
	return nil
}

// ValidateMarketPrice checks the target price of an implied volatility request.
func ValidateMarketPrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return ValidationError{Field: "market_price", Message: "must be a positive number"}
	}
	return nil
}

// ValidateLimit checks the page size of a quote listing.
func ValidateLimit(limit int) error {
	if limit < 0 {
		return ValidationError{Field: "limit", Message: "cannot be negative"}
	}
	return nil
}
