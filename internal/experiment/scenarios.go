package experiment

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws n paired observations from src.
type Sampler func(src rand.Source, n int) (x, y []float64, err error)

// Scenario is one synthetic pair of distributions. Scenarios sharing a
// Group are plotted on the same histogram.
type Scenario struct {
	Name   string
	Group  string
	Sample Sampler
}

// DefaultScenarios mirrors the classic comparisons: identical, shifted and
// wider normals, bimodal mixtures, and a strongly correlated bivariate
// normal.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "same", Group: "unimodal", Sample: independent(normal(0, 2), normal(0, 2))},
		{Name: "shifted", Group: "unimodal", Sample: independent(normal(0, 2), normal(10, 2))},
		{Name: "wide", Group: "unimodal", Sample: independent(normal(0, 2), normal(0, 10))},
		{Name: "bimodal-bimodal", Group: "bimodal", Sample: independent(bimodal(0, 10, 2), bimodal(0, 10, 2))},
		{Name: "bimodal-unimodal", Group: "bimodal", Sample: independent(bimodal(0, 10, 2), normal(0, 2))},
		{Name: "correlated", Group: "correlated", Sample: bivariateNormal([]float64{0, 0}, []float64{1, 20, 20, 500})},
	}
}

// SelectScenarios returns the named scenarios in the order given.
func SelectScenarios(all []Scenario, names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]Scenario, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}
	out := make([]Scenario, 0, len(names))
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}

type marginal func(src rand.Source, n int) []float64

func normal(mu, sigma float64) marginal {
	return func(src rand.Source, n int) []float64 {
		dist := distuv.Normal{Mu: mu, Sigma: sigma, Src: src}
		out := make([]float64, n)
		for i := range out {
			out[i] = dist.Rand()
		}
		return out
	}
}

// bimodal draws half of the samples around each mode.
func bimodal(mu1, mu2, sigma float64) marginal {
	return func(src rand.Source, n int) []float64 {
		half := n / 2
		return append(normal(mu1, sigma)(src, half), normal(mu2, sigma)(src, n-half)...)
	}
}

func independent(x, y marginal) Sampler {
	return func(src rand.Source, n int) ([]float64, []float64, error) {
		xs := x(src, n)
		return xs, y(src, n), nil
	}
}

func bivariateNormal(mu, cov []float64) Sampler {
	return func(src rand.Source, n int) ([]float64, []float64, error) {
		dist, ok := distmv.NewNormal(mu, mat.NewSymDense(len(mu), cov), src)
		if !ok {
			return nil, nil, fmt.Errorf("covariance %v is not positive definite", cov)
		}
		xs := make([]float64, n)
		ys := make([]float64, n)
		draw := make([]float64, len(mu))
		for i := 0; i < n; i++ {
			dist.Rand(draw)
			xs[i], ys[i] = draw[0], draw[1]
		}
		return xs, ys, nil
	}
}
