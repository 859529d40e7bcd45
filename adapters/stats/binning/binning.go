// Package binning is the hard-binning mutual information estimator: each
// sample is shifted by its variable's minimum, rounded to an integer and
// counted in exactly one unit-width bin.
package binning

import (
	"context"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"splinemi/adapters/stats/infotheory"
	"splinemi/domain/mi"
	"splinemi/internal/errors"
)

const (
	// Name identifies this estimator to callers that choose by name.
	Name = "binning"

	// DefaultMaxBins caps the table width; bins are raw units, so a wide
	// range means a wide table.
	DefaultMaxBins = 4096

	// DefaultMaxTableCells caps samples × bins for each indicator table.
	DefaultMaxTableCells = 1 << 25
)

// Estimator counts integer-rounded samples in a bin range shared by both
// variables.
type Estimator struct {
	MaxBins       int
	MaxTableCells int
}

var _ mi.Estimator = (*Estimator)(nil)

// NewEstimator creates a binning estimator with the default bin cap
func NewEstimator() *Estimator {
	return &Estimator{MaxBins: DefaultMaxBins, MaxTableCells: DefaultMaxTableCells}
}

// MutualInformation estimates I(X;Y) in bits with unit-width integer bins.
func MutualInformation(x, y []float64) (float64, error) {
	return NewEstimator().Estimate(context.Background(), x, y)
}

// Name returns the estimator name
func (e *Estimator) Name() string {
	return Name
}

// Estimate returns the mutual information between x and y
func (e *Estimator) Estimate(ctx context.Context, x, y []float64) (float64, error) {
	result, err := e.Analyze(ctx, x, y)
	if err != nil {
		return 0, err
	}
	return result.MI, nil
}

// Analyze returns the estimate together with both marginal entropies
func (e *Estimator) Analyze(ctx context.Context, x, y []float64) (mi.Result, error) {
	if len(x) != len(y) {
		return mi.Result{}, errors.InvalidParameter(fmt.Sprintf("samples must be paired: len(x)=%d, len(y)=%d", len(x), len(y)))
	}
	if len(x) == 0 {
		return mi.Result{}, errors.InvalidParameter("at least one paired sample is required")
	}
	if err := ctx.Err(); err != nil {
		return mi.Result{}, err
	}

	limit := e.MaxBins
	if limit <= 0 {
		limit = DefaultMaxBins
	}
	binsX, err := Discretize(x, limit)
	if err != nil {
		return mi.Result{}, errors.Wrap(err, "variable x")
	}
	binsY, err := Discretize(y, limit)
	if err != nil {
		return mi.Result{}, errors.Wrap(err, "variable y")
	}

	nbins := max(maxBin(binsX), maxBin(binsY)) + 1
	cells := e.MaxTableCells
	if cells <= 0 {
		cells = DefaultMaxTableCells
	}
	if len(x) > cells/nbins {
		return mi.Result{}, errors.InvalidParameter(fmt.Sprintf("%d samples × %d bins exceed the table limit of %d cells", len(x), nbins, cells))
	}

	tableX := IndicatorTable(binsX, nbins)
	tableY := IndicatorTable(binsY, nbins)
	joint, err := infotheory.JointTable(tableX, tableY)
	if err != nil {
		return mi.Result{}, err
	}
	hX := infotheory.Entropy(tableX, infotheory.Marginal)
	hY := infotheory.Entropy(tableY, infotheory.Marginal)
	hXY := infotheory.Entropy(joint, infotheory.Joint)

	return mi.Result{
		Method:   Name,
		MI:       infotheory.Compose(hX, hY, hXY),
		EntropyX: hX,
		EntropyY: hY,
		Samples:  len(x),
	}, nil
}

// Discretize shifts samples to start at zero and rounds half to even. A
// sample whose bin would be maxBins or beyond is rejected.
func Discretize(samples []float64, maxBins int) ([]int, error) {
	lo, err := stats.Min(samples)
	if err != nil {
		return nil, errors.InvalidParameter("cannot discretize an empty sample sequence")
	}
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.InvalidParameter(fmt.Sprintf("sample %d is not finite (%v)", i, v))
		}
	}
	bins := make([]int, len(samples))
	for i, v := range samples {
		spread := math.RoundToEven(v - lo)
		if spread >= float64(maxBins) {
			return nil, errors.InvalidParameter(fmt.Sprintf("sample %d needs bin %g, beyond the limit of %d unit bins; rescale the input", i, spread, maxBins))
		}
		bins[i] = int(spread)
	}
	return bins, nil
}

// IndicatorTable is the n × nbins matrix with a single 1 per row.
func IndicatorTable(bins []int, nbins int) *mat.Dense {
	table := mat.NewDense(len(bins), nbins, nil)
	for s, b := range bins {
		table.Set(s, b, 1)
	}
	return table
}

func maxBin(bins []int) int {
	top := 0
	for _, b := range bins {
		top = max(top, b)
	}
	return top
}
