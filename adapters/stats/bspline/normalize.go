package bspline

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"splinemi/internal/errors"
)

// Normalize min-max scales samples onto [0,1]. The minimum maps to exactly
// 0 and the maximum to exactly 1. The input is not modified.
func Normalize(samples []float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, errors.InvalidParameter("cannot normalize an empty sample sequence")
	}
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.InvalidParameter(fmt.Sprintf("sample %d is not finite (%v)", i, v))
		}
	}

	lo, err := stats.Min(samples)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute sample minimum")
	}
	hi, err := stats.Max(samples)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute sample maximum")
	}

	span := hi - lo
	if span == 0 {
		return nil, errors.DegenerateInput(fmt.Sprintf("all %d samples equal %v; zero range cannot be normalized", len(samples), lo))
	}

	z := make([]float64, len(samples))
	if math.IsInf(span, 1) {
		// Range beyond MaxFloat64; halves keep both endpoints exact.
		half := hi/2 - lo/2
		for i, v := range samples {
			z[i] = (v/2 - lo/2) / half
		}
		return z, nil
	}
	for i, v := range samples {
		z[i] = (v - lo) / span
	}
	return z, nil
}
