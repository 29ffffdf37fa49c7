// Package cyclestore extracts cycle-indexed arrays from observation tables.
//
// A build groups the table by (subject, task, step), enforces the structural
// invariants (exactly 150 rows per step on the canonical phase grid) and
// materializes a dense cycle-major array. Structurally broken steps are
// skipped and recorded, never fatal. Builds are cached per
// (subject, task, features) key with at-most-one construction per key under
// concurrent access.
package cyclestore

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"gaitkit/pkg/contracts/domain"
)

// Array is a dense 3D float64 array indexed [cycle][phase][feature],
// cycle-major. It backs both validation and statistics; rows of one cycle
// are contiguous so per-cycle work is a single slice.
type Array struct {
	data      []float64
	nCycles   int
	nPoints   int
	nFeatures int
}

// NewArray allocates a zeroed array with the given shape.
func NewArray(nCycles, nPoints, nFeatures int) *Array {
	return &Array{
		data:      make([]float64, nCycles*nPoints*nFeatures),
		nCycles:   nCycles,
		nPoints:   nPoints,
		nFeatures: nFeatures,
	}
}

// Shape returns (cycles, points, features).
func (a *Array) Shape() (int, int, int) {
	return a.nCycles, a.nPoints, a.nFeatures
}

// NumCycles returns the cycle count.
func (a *Array) NumCycles() int { return a.nCycles }

// At returns the value at (cycle, point, feature).
func (a *Array) At(cycle, point, feature int) float64 {
	return a.data[(cycle*a.nPoints+point)*a.nFeatures+feature]
}

// Set stores a value at (cycle, point, feature).
func (a *Array) Set(cycle, point, feature int, v float64) {
	a.data[(cycle*a.nPoints+point)*a.nFeatures+feature] = v
}

// Cycle returns the contiguous slice backing one cycle
// (nPoints × nFeatures values, phase-major). Callers must not mutate it.
func (a *Array) Cycle(cycle int) []float64 {
	stride := a.nPoints * a.nFeatures
	return a.data[cycle*stride : (cycle+1)*stride]
}

// Column collects the values of one (point, feature) position across all
// cycles into dst, which is grown as needed and returned.
func (a *Array) Column(point, feature int, dst []float64) []float64 {
	dst = dst[:0]
	for c := 0; c < a.nCycles; c++ {
		dst = append(dst, a.At(c, point, feature))
	}
	return dst
}

// MeanStd computes the mean and standard deviation of each (point, feature)
// position across cycles, ignoring NaN samples. Positions where every sample
// is NaN yield NaN mean and zero std.
func (a *Array) MeanStd() (means, stds []float64) {
	n := a.nPoints * a.nFeatures
	means = make([]float64, n)
	stds = make([]float64, n)

	column := make([]float64, 0, a.nCycles)
	for p := 0; p < a.nPoints; p++ {
		for f := 0; f < a.nFeatures; f++ {
			column = column[:0]
			for c := 0; c < a.nCycles; c++ {
				if v := a.At(c, p, f); !math.IsNaN(v) {
					column = append(column, v)
				}
			}
			idx := p*a.nFeatures + f
			if len(column) == 0 {
				means[idx] = math.NaN()
				stds[idx] = 0
				continue
			}
			mean, std := stat.MeanStdDev(column, nil)
			means[idx] = mean
			if math.IsNaN(std) { // single sample
				std = 0
			}
			stds[idx] = std
		}
	}
	return means, stds
}

// Result is the outcome of one cycle extraction. An extraction with zero
// matching rows yields an empty Result, not an error; whether that is
// acceptable is the caller's call.
type Result struct {
	Array    *Array
	Features []string
	// Keys maps cycle index to its (subject, task, step) identity.
	Keys []domain.CycleKey
	// Skipped lists steps excluded for structural reasons.
	Skipped []domain.SkippedStep
	// DroppedFeatures lists requested features absent from the table.
	DroppedFeatures []string
}

// Empty reports whether the extraction produced no cycles.
func (r *Result) Empty() bool {
	return r.Array == nil || r.Array.NumCycles() == 0
}

// FeatureIndex returns the array position of a feature, or false when the
// extraction does not carry it.
func (r *Result) FeatureIndex(name string) (int, bool) {
	for i, f := range r.Features {
		if f == name {
			return i, true
		}
	}
	return 0, false
}
