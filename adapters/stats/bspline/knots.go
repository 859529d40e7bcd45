package bspline

import (
	"fmt"

	"splinemi/internal/errors"
)

// KnotVector is a clamped, non-decreasing knot sequence on [0,1].
type KnotVector []float64

// NewKnotVector builds the clamped knot vector for nbins basis functions of
// the given order: order zeros, uniform interior knots, order ones.
func NewKnotVector(nbins, order int) (KnotVector, error) {
	if err := validateParams(nbins, order); err != nil {
		return nil, err
	}

	m := nbins - order + 1
	knots := make(KnotVector, 0, nbins+order)
	for j := 0; j < order; j++ {
		knots = append(knots, 0)
	}
	for j := 1; j < m; j++ {
		knots = append(knots, float64(j)/float64(m))
	}
	for j := 0; j < order; j++ {
		knots = append(knots, 1)
	}
	return knots, nil
}

// NBins returns the number of basis functions of the given order the
// vector supports.
func (k KnotVector) NBins(order int) int {
	return len(k) - order
}

func validateParams(nbins, order int) error {
	if order < 1 {
		return errors.InvalidParameter(fmt.Sprintf("spline order must be at least 1, got %d", order))
	}
	if nbins < order {
		return errors.InvalidParameter(fmt.Sprintf("nbins=%d must be at least the spline order %d", nbins, order))
	}
	return nil
}
