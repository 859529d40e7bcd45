package bspline

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"splinemi/internal/errors"
)

// referenceBasis is the textbook recursive Cox–de Boor definition, used to
// check the bottom-up evaluator.
func referenceBasis(i, k int, U []float64, u float64, nbins int) float64 {
	if k == 1 {
		if U[i] <= u && u < U[i+1] {
			return 1
		}
		if u == U[i+1] && i+1 == nbins {
			return 1
		}
		return 0
	}
	numer1, denom1 := u-U[i], U[i+k-1]-U[i]
	numer2, denom2 := U[i+k]-u, U[i+k]-U[i+1]
	switch {
	case denom1 == 0 && denom2 == 0:
		return 0
	case denom1 == 0:
		return numer2 / denom2 * referenceBasis(i+1, k-1, U, u, nbins)
	case denom2 == 0:
		return numer1 / denom1 * referenceBasis(i, k-1, U, u, nbins)
	}
	return numer1/denom1*referenceBasis(i, k-1, U, u, nbins) +
		numer2/denom2*referenceBasis(i+1, k-1, U, u, nbins)
}

func evaluationPoints(knots KnotVector) []float64 {
	points := make([]float64, 0, 201+len(knots))
	for s := 0; s <= 200; s++ {
		points = append(points, float64(s)/200)
	}
	return append(points, knots...)
}

func TestNewKnotVector(t *testing.T) {
	tests := []struct {
		nbins, order int
		want         KnotVector
	}{
		{5, 3, KnotVector{0, 0, 0, 1.0 / 3, 2.0 / 3, 1, 1, 1}},
		{4, 1, KnotVector{0, 0.25, 0.5, 0.75, 1}},
		{3, 3, KnotVector{0, 0, 0, 1, 1, 1}},
		{4, 2, KnotVector{0, 0, 1.0 / 3, 2.0 / 3, 1, 1}},
	}
	for _, tt := range tests {
		got, err := NewKnotVector(tt.nbins, tt.order)
		require.NoError(t, err)
		assert.Len(t, got, tt.nbins+tt.order)
		assert.InDeltaSlice(t, tt.want, got, 1e-15, "nbins=%d order=%d", tt.nbins, tt.order)
		assert.Equal(t, tt.nbins, got.NBins(tt.order))
	}
}

func TestNewKnotVectorRejectsBadParameters(t *testing.T) {
	for _, p := range [][2]int{{2, 3}, {3, 0}, {0, 0}, {5, -1}} {
		_, err := NewKnotVector(p[0], p[1])
		require.Error(t, err, "nbins=%d order=%d", p[0], p[1])
		assert.True(t, errors.IsInvalidParameter(err))
	}
}

func TestNormalize(t *testing.T) {
	in := []float64{4, 2, 6, 5}
	z, err := Normalize(in)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0, 1, 0.75}, z)
	assert.Equal(t, []float64{4, 2, 6, 5}, in, "input must not be modified")
}

func TestNormalizeEndpointsAreExact(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 9))
	samples := make([]float64, 500)
	for i := range samples {
		samples[i] = r.NormFloat64()*123.4 + 17
	}
	z, err := Normalize(samples)
	require.NoError(t, err)

	assert.Equal(t, 0.0, floats.Min(z))
	assert.Equal(t, 1.0, floats.Max(z))
}

func TestNormalizeRangeBeyondFloatMax(t *testing.T) {
	z, err := Normalize([]float64{-1e308, 0, 1e308, 5e307})
	require.NoError(t, err)
	assert.Equal(t, 0.0, z[0])
	assert.Equal(t, 0.5, z[1])
	assert.Equal(t, 1.0, z[2])
	assert.InDelta(t, 0.75, z[3], 1e-15)

	z, err = Normalize([]float64{math.MaxFloat64, -math.MaxFloat64})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, z)
}

func TestNormalizeErrors(t *testing.T) {
	_, err := Normalize([]float64{3, 3, 3})
	assert.True(t, errors.IsDegenerateInput(err))

	_, err = Normalize([]float64{7})
	assert.True(t, errors.IsDegenerateInput(err))

	_, err = Normalize(nil)
	assert.True(t, errors.IsInvalidParameter(err))

	_, err = Normalize([]float64{1, math.NaN(), 2})
	assert.True(t, errors.IsInvalidParameter(err))

	_, err = Normalize([]float64{1, math.Inf(1)})
	assert.True(t, errors.IsInvalidParameter(err))
}

func TestPartitionOfUnity(t *testing.T) {
	for order := 1; order <= 6; order++ {
		for _, nbins := range []int{order, order + 1, 10, 17} {
			if nbins < order {
				continue
			}
			knots, err := NewKnotVector(nbins, order)
			require.NoError(t, err)

			for _, u := range evaluationPoints(knots) {
				row, err := Weights(order, knots, u, nbins, nil)
				require.NoError(t, err)
				for _, w := range row {
					assert.GreaterOrEqual(t, w, 0.0)
					assert.LessOrEqual(t, w, 1.0+1e-12)
				}
				assert.InDelta(t, 1.0, floats.Sum(row), 1e-9,
					"order=%d nbins=%d u=%v", order, nbins, u)
			}
		}
	}
}

func TestBoundaryCoverage(t *testing.T) {
	knots, err := NewKnotVector(10, 3)
	require.NoError(t, err)

	low, err := Weights(3, knots, 0, 10, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, low[0], 1e-15)
	assert.InDelta(t, 1.0, floats.Sum(low), 1e-12)

	high, err := Weights(3, knots, 1, 10, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, high[9], 1e-15)
	assert.InDelta(t, 1.0, floats.Sum(high), 1e-12)
}

func TestBasisMatchesRecursiveDefinition(t *testing.T) {
	for order := 1; order <= 5; order++ {
		for _, nbins := range []int{order, 7, 12} {
			if nbins < order {
				continue
			}
			knots, err := NewKnotVector(nbins, order)
			require.NoError(t, err)

			for _, u := range evaluationPoints(knots) {
				for k := 1; k <= order; k++ {
					for i := 0; i+k < len(knots); i++ {
						want := referenceBasis(i, k, knots, u, nbins)
						got := Basis(i, k, knots, u, nbins)
						require.InDelta(t, want, got, 1e-12, "N(%d,%d) u=%v order=%d nbins=%d", i, k, u, order, nbins)
					}
				}
			}
		}
	}
}

func TestBasisOutsideKnotVector(t *testing.T) {
	knots, err := NewKnotVector(5, 3)
	require.NoError(t, err)

	assert.Equal(t, 0.0, Basis(-1, 3, knots, 0.5, 5))
	assert.Equal(t, 0.0, Basis(5, 3, knots, 0.5, 5))
	assert.Equal(t, 0.0, Basis(0, 0, knots, 0.5, 5))
	assert.Equal(t, 0.0, Basis(2, 3, knots, 1.5, 5))
}

func TestWeightsRejectsMismatchedKnots(t *testing.T) {
	knots, err := NewKnotVector(5, 3)
	require.NoError(t, err)

	_, err = Weights(3, knots, 0.5, 6, nil)
	assert.True(t, errors.IsInvalidParameter(err))

	_, err = Weights(4, knots, 0.5, 5, nil)
	assert.True(t, errors.IsInvalidParameter(err))
}

func TestWeightsReusesScratch(t *testing.T) {
	knots, err := NewKnotVector(8, 3)
	require.NoError(t, err)

	scratch := make([]float64, len(knots)-1)
	row, err := Weights(3, knots, 0.3, 8, scratch)
	require.NoError(t, err)
	require.Len(t, row, 8)
	assert.Same(t, &scratch[0], &row[0])
}

func TestBuildTableRowsSumToOne(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 12))
	z := make([]float64, 1000)
	for i := range z {
		z[i] = r.Float64()
	}
	z[0], z[1] = 0, 1

	knots, err := NewKnotVector(10, 3)
	require.NoError(t, err)

	table, err := BuildTable(context.Background(), z, 3, knots, 10, 4)
	require.NoError(t, err)

	rows, cols := table.Dims()
	assert.Equal(t, 1000, rows)
	assert.Equal(t, 10, cols)
	for s := 0; s < rows; s++ {
		assert.InDelta(t, 1.0, floats.Sum(table.RawRowView(s)), 1e-9, "row %d", s)
	}
}

func TestBuildTableIndependentOfWorkerCount(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	z := make([]float64, 333)
	for i := range z {
		z[i] = r.Float64()
	}
	knots, err := NewKnotVector(12, 4)
	require.NoError(t, err)

	serial, err := BuildTable(context.Background(), z, 4, knots, 12, 1)
	require.NoError(t, err)
	for _, workers := range []int{0, 2, 7, 400} {
		parallel, err := BuildTable(context.Background(), z, 4, knots, 12, workers)
		require.NoError(t, err)
		assert.Equal(t, serial.RawMatrix().Data, parallel.RawMatrix().Data, "workers=%d", workers)
	}
}

func TestBuildTableErrors(t *testing.T) {
	knots, err := NewKnotVector(10, 3)
	require.NoError(t, err)

	_, err = BuildTable(context.Background(), nil, 3, knots, 10, 1)
	assert.True(t, errors.IsInvalidParameter(err))

	_, err = BuildTable(context.Background(), []float64{0.5}, 3, knots, 9, 1)
	assert.True(t, errors.IsInvalidParameter(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = BuildTable(ctx, []float64{0.1, 0.2}, 3, knots, 10, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
