package cyclestore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArray_IndexingAndCycleSlice(t *testing.T) {
	arr := NewArray(2, 3, 2)
	arr.Set(1, 2, 1, 42.0)

	assert.Equal(t, 42.0, arr.At(1, 2, 1))

	cycle := arr.Cycle(1)
	require.Len(t, cycle, 3*2)
	// (point 2, feature 1) is the last element of the cycle slice.
	assert.Equal(t, 42.0, cycle[5])
}

func TestArray_Column(t *testing.T) {
	arr := NewArray(3, 2, 1)
	for c := 0; c < 3; c++ {
		arr.Set(c, 1, 0, float64(c)*10)
	}

	col := arr.Column(1, 0, nil)
	assert.Equal(t, []float64{0, 10, 20}, col)
}

func TestArray_MeanStd(t *testing.T) {
	arr := NewArray(4, 1, 2)
	for c, v := range []float64{2, 4, 4, 2} {
		arr.Set(c, 0, 0, v)
		arr.Set(c, 0, 1, 7) // constant
	}

	means, stds := arr.MeanStd()
	assert.InDelta(t, 3.0, means[0], 1e-12)
	assert.InDelta(t, math.Sqrt(4.0/3.0), stds[0], 1e-12)
	assert.Equal(t, 7.0, means[1])
	assert.Equal(t, 0.0, stds[1])
}

func TestArray_MeanStd_NaNHandling(t *testing.T) {
	arr := NewArray(3, 1, 1)
	arr.Set(0, 0, 0, 1)
	arr.Set(1, 0, 0, math.NaN())
	arr.Set(2, 0, 0, 3)

	means, stds := arr.MeanStd()
	assert.InDelta(t, 2.0, means[0], 1e-12)
	assert.False(t, math.IsNaN(stds[0]))
}

func TestArray_MeanStd_AllNaNPosition(t *testing.T) {
	arr := NewArray(2, 1, 1)
	arr.Set(0, 0, 0, math.NaN())
	arr.Set(1, 0, 0, math.NaN())

	means, stds := arr.MeanStd()
	assert.True(t, math.IsNaN(means[0]))
	assert.Equal(t, 0.0, stds[0])
}
