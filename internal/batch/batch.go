// Package batch prices a list of options described in a YAML file.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/optionlab/pricer/internal/pricing"
)

// File is the top level of a batch YAML document.
type File struct {
	// Engine applies to jobs that do not name their own.
	Engine pricing.EngineSpec `yaml:"engine"`
	Jobs   []Job              `yaml:"jobs"`
}

// Job is one option to value.
type Job struct {
	Name     string              `yaml:"name"`
	Option   pricing.OptionSpec  `yaml:"option"`
	Engine   *pricing.EngineSpec `yaml:"engine,omitempty"`
	Greeks   bool                `yaml:"greeks"`
	Boundary bool                `yaml:"exercise_boundary"`
}

// Result is the outcome of one job. Err is set instead of Valuation when
// the job failed.
type Result struct {
	Name      string
	Engine    pricing.EngineSpec
	Valuation pricing.Valuation
	Duration  time.Duration
	Err       error
}

// Load reads and validates a batch file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a batch document. Job engines inherit the
// file-level engine.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(f.Jobs) == 0 {
		return nil, errors.New("batch file has no jobs")
	}

	seen := make(map[string]bool, len(f.Jobs))
	for i := range f.Jobs {
		job := &f.Jobs[i]
		if job.Name == "" {
			job.Name = fmt.Sprintf("job-%d", i+1)
		}
		if seen[job.Name] {
			return nil, fmt.Errorf("duplicate job name %q", job.Name)
		}
		seen[job.Name] = true
		if job.Engine == nil {
			spec := f.Engine
			job.Engine = &spec
		}
	}
	return &f, nil
}

// Runner values jobs concurrently.
type Runner struct {
	Defaults pricing.EngineDefaults
	// Workers bounds concurrent jobs. Zero means runtime.GOMAXPROCS(0).
	Workers int
	Logger  *slog.Logger
}

// Run values every job and returns results in job order. A failing job
// records its error and does not stop the others; jobs not yet started when
// ctx is cancelled fail with the context error.
func (r Runner) Run(ctx context.Context, jobs []Job) []Result {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = r.runJob(ctx, job, logger)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r Runner) runJob(ctx context.Context, job Job, logger *slog.Logger) Result {
	res := Result{Name: job.Name}
	if job.Engine != nil {
		res.Engine = *job.Engine
	}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	start := time.Now()
	res.Valuation, res.Err = value(job, res.Engine, r.Defaults, logger)
	res.Duration = time.Since(start)

	if res.Err != nil {
		logger.Warn("batch job failed", "job", job.Name, "error", res.Err)
	} else {
		logger.Info("batch job priced",
			"job", job.Name,
			"engine", res.Valuation.Engine,
			"price", res.Valuation.Price,
			"duration_ms", res.Duration.Milliseconds(),
		)
	}
	return res
}

func value(job Job, spec pricing.EngineSpec, defaults pricing.EngineDefaults, logger *slog.Logger) (pricing.Valuation, error) {
	p, err := job.Option.Params()
	if err != nil {
		return pricing.Valuation{}, err
	}
	engine, err := spec.BuildWith(defaults, logger)
	if err != nil {
		return pricing.Valuation{}, err
	}
	return pricing.Value(engine, p, pricing.ValueOptions{Greeks: job.Greeks, Boundary: job.Boundary})
}

// Failed counts results with errors.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
