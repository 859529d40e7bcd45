package bspline

import (
	"fmt"
	"math"

	"splinemi/internal/errors"
)

// Basis evaluates N(i,k), the i-th B-spline basis function of order k over
// knots, at u. Indices outside the knot vector yield 0.
func Basis(i, k int, knots KnotVector, u float64, nbins int) float64 {
	if i < 0 || k < 1 || i+k >= len(knots) {
		return 0
	}
	work := make([]float64, len(knots)-1)
	fill(work, k, knots, u, nbins)
	return work[i]
}

// Weights evaluates every order-k basis function at u and returns them as
// a slice of length nbins. dst is used as scratch space when it has room
// for len(knots)-1 values, so the result aliases dst.
func Weights(order int, knots KnotVector, u float64, nbins int, dst []float64) ([]float64, error) {
	if err := validateParams(nbins, order); err != nil {
		return nil, err
	}
	if len(knots) != nbins+order {
		return nil, errors.InvalidParameter(fmt.Sprintf("knot vector has %d knots, want nbins+order=%d", len(knots), nbins+order))
	}

	size := len(knots) - 1
	if cap(dst) < size {
		dst = make([]float64, size)
	}
	work := dst[:size]
	fill(work, order, knots, u, nbins)

	row := work[:nbins]
	for bin, w := range row {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, errors.InvariantViolation(fmt.Sprintf("basis N(%d,%d) at u=%v evaluated to %v", bin, order, u, w))
		}
	}
	return row, nil
}

// fill runs Cox–de Boor bottom-up: work starts as the order-1 indicators
// and is raised one order at a time in place. At level k, slot i reads the
// level k-1 values of slots i and i+1 before it is overwritten, so a single
// ascending sweep is enough. After the call work[i] holds N(i,order) for
// i+order < len(knots).
func fill(work []float64, order int, knots KnotVector, u float64, nbins int) {
	for i := range work {
		work[i] = indicator(i, knots, u, nbins)
	}
	for k := 2; k <= order; k++ {
		for i := 0; i+k < len(knots); i++ {
			work[i] = raise(i, k, knots, u, work[i], work[i+1])
		}
	}
}

// indicator is the order-1 basis: the half-open span [U[i], U[i+1]), with
// the last bin also closed on the right so u == 1 is not dropped.
func indicator(i int, knots KnotVector, u float64, nbins int) float64 {
	if knots[i] <= u && u < knots[i+1] {
		return 1
	}
	if u == knots[i+1] && i+1 == nbins {
		return 1
	}
	return 0
}

// raise combines N(i,k-1) and N(i+1,k-1) into N(i,k). Repeated knots make
// one or both denominators zero; the matching term then vanishes.
func raise(i, k int, knots KnotVector, u, left, right float64) float64 {
	denom1 := knots[i+k-1] - knots[i]
	denom2 := knots[i+k] - knots[i+1]

	switch {
	case denom1 == 0 && denom2 == 0:
		return 0
	case denom1 == 0:
		return (knots[i+k] - u) / denom2 * right
	case denom2 == 0:
		return (u - knots[i]) / denom1 * left
	}
	return (u-knots[i])/denom1*left + (knots[i+k]-u)/denom2*right
}
