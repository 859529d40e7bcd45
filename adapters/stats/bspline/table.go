package bspline

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"splinemi/internal/errors"
)

// minChunkRows keeps goroutines from being spawned for a handful of rows.
const minChunkRows = 64

// BuildTable evaluates the soft histogram of normalized samples z: an
// n × nbins matrix whose row s holds the basis weights of z[s]. Rows are
// independent and are computed in parallel by at most workers goroutines
// (GOMAXPROCS when workers <= 0).
func BuildTable(ctx context.Context, z []float64, order int, knots KnotVector, nbins int, workers int) (*mat.Dense, error) {
	n := len(z)
	if n == 0 {
		return nil, errors.InvalidParameter("cannot build a probability table from zero samples")
	}
	if err := validateParams(nbins, order); err != nil {
		return nil, err
	}
	if len(knots) != nbins+order {
		return nil, errors.InvalidParameter(fmt.Sprintf("knot vector has %d knots, want nbins+order=%d", len(knots), nbins+order))
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	chunk := max((n+workers-1)/workers, minChunkRows)
	data := make([]float64, n*nbins)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		lo, hi := start, min(start+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			work := make([]float64, len(knots)-1)
			for s := lo; s < hi; s++ {
				row, err := Weights(order, knots, z[s], nbins, work)
				if err != nil {
					return errors.Wrapf(err, "sample %d", s)
				}
				copy(data[s*nbins:(s+1)*nbins], row)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mat.NewDense(n, nbins, data), nil
}
