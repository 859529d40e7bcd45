// Package bspline estimates mutual information between two continuous
// variables from a B-spline smoothed histogram: every sample spreads a unit
// of mass over the order neighbouring bins instead of landing in exactly
// one.
package bspline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"splinemi/adapters/stats/infotheory"
	"splinemi/domain/mi"
	"splinemi/internal"
	"splinemi/internal/errors"
)

const (
	// Name identifies this estimator to callers that choose by name.
	Name = "bspline"

	DefaultOrder = 3
	DefaultNBins = 10

	// DefaultMaxNBins and DefaultMaxTableCells bound the allocation of a
	// single estimate; zero limits on an Estimator fall back to these.
	DefaultMaxNBins      = 4096
	DefaultMaxTableCells = 1 << 25
)

// Estimator holds the binning parameters shared by both variables of a pair.
type Estimator struct {
	NBins         int
	Order         int
	MaxNBins      int
	MaxTableCells int              // samples × nbins per table
	Workers       int              // row-parallelism per table; <= 0 means GOMAXPROCS
	Logger        *internal.Logger // optional
}

var _ mi.Estimator = (*Estimator)(nil)

// NewEstimator creates an estimator for nbins bins of the given order
func NewEstimator(nbins, order int) *Estimator {
	return &Estimator{
		NBins:         nbins,
		Order:         order,
		MaxNBins:      DefaultMaxNBins,
		MaxTableCells: DefaultMaxTableCells,
	}
}

// MutualInformation estimates I(X;Y) in bits with nbins bins of the given
// spline order (DefaultOrder is cubic-like smoothing).
func MutualInformation(x, y []float64, nbins, order int) (float64, error) {
	return NewEstimator(nbins, order).Estimate(context.Background(), x, y)
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
	started := time.Now()

	if err := e.checkParams(); err != nil {
		return mi.Result{}, err
	}
	if len(x) != len(y) {
		return mi.Result{}, errors.InvalidParameter(fmt.Sprintf("samples must be paired: len(x)=%d, len(y)=%d", len(x), len(y)))
	}
	if len(x) == 0 {
		return mi.Result{}, errors.InvalidParameter("at least one paired sample is required")
	}
	if err := e.checkTableSize(len(x)); err != nil {
		return mi.Result{}, err
	}

	knots, err := NewKnotVector(e.NBins, e.Order)
	if err != nil {
		return mi.Result{}, err
	}

	var tableX, tableY *mat.Dense
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tableX, err = e.table(gctx, "x", x, knots)
		return err
	})
	g.Go(func() error {
		var err error
		tableY, err = e.table(gctx, "y", y, knots)
		return err
	})
	if err := g.Wait(); err != nil {
		return mi.Result{}, err
	}

	joint, err := infotheory.JointTable(tableX, tableY)
	if err != nil {
		return mi.Result{}, err
	}
	hX := infotheory.Entropy(tableX, infotheory.Marginal)
	hY := infotheory.Entropy(tableY, infotheory.Marginal)
	hXY := infotheory.Entropy(joint, infotheory.Joint)

	result := mi.Result{
		Method:   Name,
		MI:       infotheory.Compose(hX, hY, hXY),
		EntropyX: hX,
		EntropyY: hY,
		Samples:  len(x),
	}
	e.debug("n=%d nbins=%d order=%d H(X)=%.4f H(Y)=%.4f H(X,Y)=%.4f MI=%.4f in %s",
		len(x), e.NBins, e.Order, hX, hY, hXY, result.MI, time.Since(started))
	return result, nil
}

// Entropy returns the marginal entropy of one variable's soft histogram
func (e *Estimator) Entropy(ctx context.Context, x []float64) (float64, error) {
	if err := e.checkParams(); err != nil {
		return 0, err
	}
	if err := e.checkTableSize(len(x)); err != nil {
		return 0, err
	}
	knots, err := NewKnotVector(e.NBins, e.Order)
	if err != nil {
		return 0, err
	}
	table, err := e.table(ctx, "x", x, knots)
	if err != nil {
		return 0, err
	}
	return infotheory.Entropy(table, infotheory.Marginal), nil
}

func (e *Estimator) checkParams() error {
	if err := validateParams(e.NBins, e.Order); err != nil {
		return err
	}
	limit := e.MaxNBins
	if limit <= 0 {
		limit = DefaultMaxNBins
	}
	if e.NBins > limit {
		return errors.InvalidParameter(fmt.Sprintf("nbins=%d exceeds the limit of %d", e.NBins, limit))
	}
	return nil
}

// checkTableSize expects checkParams to have passed, so NBins >= 1.
func (e *Estimator) checkTableSize(n int) error {
	cells := e.MaxTableCells
	if cells <= 0 {
		cells = DefaultMaxTableCells
	}
	if n > cells/e.NBins {
		return errors.InvalidParameter(fmt.Sprintf("%d samples × %d bins exceed the table limit of %d cells", n, e.NBins, cells))
	}
	return nil
}

func (e *Estimator) table(ctx context.Context, name string, samples []float64, knots KnotVector) (*mat.Dense, error) {
	z, err := Normalize(samples)
	if err != nil {
		return nil, errors.Wrapf(err, "variable %s", name)
	}
	table, err := BuildTable(ctx, z, e.Order, knots, e.NBins, e.Workers)
	if err != nil {
		return nil, errors.Wrapf(err, "variable %s", name)
	}
	return table, nil
}

func (e *Estimator) debug(format string, args ...interface{}) {
	if e.Logger != nil {
		e.Logger.Debug(format, args...)
	}
}
