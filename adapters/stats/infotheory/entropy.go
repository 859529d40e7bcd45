// Package infotheory reduces soft or hard histograms to Shannon entropies
// and composes them into mutual information. All values are in bits.
package infotheory

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"splinemi/internal/errors"
)

// Dim selects how a table is collapsed into a distribution.
type Dim int

const (
	// Marginal tables are samples × bins; column sums form the distribution.
	Marginal Dim = 1
	// Joint tables are bins × bins counts; every cell is one outcome.
	Joint Dim = 2
)

// Entropy returns the Shannon entropy of table read as dim. A table whose
// grand total is zero has entropy 0. Entropy panics if dim is neither
// Marginal nor Joint.
func Entropy(table mat.Matrix, dim Dim) float64 {
	var masses []float64
	switch dim {
	case Marginal:
		masses = columnSums(table)
	case Joint:
		masses = cells(table)
	default:
		panic(fmt.Sprintf("infotheory: unknown table dimension %d", dim))
	}
	return entropyOf(masses)
}

// MarginalDistribution returns the per-bin probabilities of a samples × bins table.
func MarginalDistribution(table mat.Matrix) []float64 {
	masses := columnSums(table)
	total := floats.Sum(masses)
	if total > 0 {
		floats.Scale(1/total, masses)
	}
	return masses
}

// JointTable returns tableXᵀ · tableY, the bins(X) × bins(Y) co-occurrence mass.
func JointTable(tableX, tableY mat.Matrix) (*mat.Dense, error) {
	rx, _ := tableX.Dims()
	ry, _ := tableY.Dims()
	if rx != ry {
		return nil, errors.InvalidParameter(fmt.Sprintf("sample count mismatch: x has %d rows, y has %d", rx, ry))
	}
	var joint mat.Dense
	joint.Mul(tableX.T(), tableY)
	return &joint, nil
}

// MutualInformation composes H(X) + H(Y) - H(X,Y) from two samples × bins
// tables with paired rows, clamped at zero.
func MutualInformation(tableX, tableY mat.Matrix) (float64, error) {
	joint, err := JointTable(tableX, tableY)
	if err != nil {
		return 0, err
	}
	hX := Entropy(tableX, Marginal)
	hY := Entropy(tableY, Marginal)
	hXY := Entropy(joint, Joint)
	return Compose(hX, hY, hXY), nil
}

// Compose combines marginal and joint entropies. Rounding can push the
// difference slightly below zero; it is clamped.
func Compose(hX, hY, hXY float64) float64 {
	return math.Max(hX+hY-hXY, 0)
}

// Log2 is log2(p) with log2(0) defined as 0.
func Log2(p float64) float64 {
	if p <= 0 {
		return 0
	}
	return math.Log2(p)
}

func entropyOf(masses []float64) float64 {
	total := floats.Sum(masses)
	if total <= 0 {
		return 0
	}
	h := 0.0
	for _, m := range masses {
		p := m / total
		h -= p * Log2(p)
	}
	return h
}

func columnSums(table mat.Matrix) []float64 {
	r, c := table.Dims()
	sums := make([]float64, c)
	if dense, ok := table.(mat.RawMatrixer); ok {
		raw := dense.RawMatrix()
		for i := 0; i < r; i++ {
			floats.Add(sums, raw.Data[i*raw.Stride:i*raw.Stride+c])
		}
		return sums
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sums[j] += table.At(i, j)
		}
	}
	return sums
}

func cells(table mat.Matrix) []float64 {
	r, c := table.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, table.At(i, j))
		}
	}
	return out
}
