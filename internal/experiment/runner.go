// Package experiment runs repeated synthetic trials through an estimator
// and summarises the spread of the resulting MI values.
package experiment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/semaphore"

	"splinemi/domain/mi"
	"splinemi/internal"
	"splinemi/internal/errors"
)

// Config controls trial count, sample size and reproducibility
type Config struct {
	Trials      int
	Samples     int
	Seed        uint64
	Concurrency int
}

// Summary describes the distribution of MI values over trials
type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Median float64
	Max    float64
}

// ScenarioResult holds every trial value for one scenario
type ScenarioResult struct {
	Name    string
	Group   string
	Values  []float64
	Summary Summary
}

// Report is the outcome of one Run
type Report struct {
	RunID     string
	Estimator string
	Config    Config
	Started   time.Time
	Elapsed   time.Duration
	Results   []ScenarioResult
}

// Runner executes scenarios against one estimator
type Runner struct {
	estimator mi.Estimator
	config    Config
	logger    *internal.Logger
}

// NewRunner creates a runner; logger may be nil
func NewRunner(estimator mi.Estimator, config Config, logger *internal.Logger) *Runner {
	if logger == nil {
		logger = internal.Discard()
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Runner{estimator: estimator, config: config, logger: logger}
}

// Run executes Trials trials of every scenario. Each trial has its own
// random source derived from the seed, the scenario index and the trial
// index, so results do not depend on scheduling.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (*Report, error) {
	if r.config.Trials < 1 || r.config.Samples < 2 {
		return nil, errors.InvalidParameter(fmt.Sprintf("need at least 1 trial of 2 samples, got %d x %d", r.config.Trials, r.config.Samples))
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Estimator: r.estimator.Name(),
		Config:    r.config,
		Started:   time.Now(),
		Results:   make([]ScenarioResult, len(scenarios)),
	}
	r.logger.Info("run %s: %d scenarios x %d trials x %d samples with %s",
		report.RunID, len(scenarios), r.config.Trials, r.config.Samples, report.Estimator)

	sem := semaphore.NewWeighted(int64(r.config.Concurrency))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for si, scenario := range scenarios {
		report.Results[si] = ScenarioResult{
			Name:   scenario.Name,
			Group:  scenario.Group,
			Values: make([]float64, r.config.Trials),
		}
		values := report.Results[si].Values

		for trial := 0; trial < r.config.Trials; trial++ {
			if err := sem.Acquire(ctx, 1); err != nil {
				fail(fmt.Errorf("failed to acquire trial slot: %w", err))
				break
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)

				value, err := r.trial(ctx, scenario, si, trial)
				if err != nil {
					fail(errors.Wrapf(err, "scenario %s trial %d", scenario.Name, trial))
					return
				}
				values[trial] = value
			}()
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	for i := range report.Results {
		summary, err := Summarize(report.Results[i].Values)
		if err != nil {
			return nil, errors.Wrapf(err, "summarize %s", report.Results[i].Name)
		}
		report.Results[i].Summary = summary
	}
	report.Elapsed = time.Since(report.Started)
	r.logger.Info("run %s finished in %s", report.RunID, report.Elapsed)
	return report, nil
}

func (r *Runner) trial(ctx context.Context, scenario Scenario, scenarioIdx, trial int) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	src := rand.NewPCG(r.config.Seed, uint64(scenarioIdx)<<32|uint64(trial))
	x, y, err := scenario.Sample(src, r.config.Samples)
	if err != nil {
		return 0, err
	}
	return r.estimator.Estimate(ctx, x, y)
}

// Summarize reduces trial values to mean, spread and range
func Summarize(values []float64) (Summary, error) {
	var s Summary
	var err error
	if s.Mean, err = stats.Mean(values); err != nil {
		return s, err
	}
	if s.StdDev, err = stats.StandardDeviation(values); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(values); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(values); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(values); err != nil {
		return s, err
	}
	return s, nil
}
