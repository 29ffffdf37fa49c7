package rangespec

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaitkit/internal/config"
	"gaitkit/internal/cyclestore"
	"gaitkit/internal/shared/testutil"
	"gaitkit/pkg/contracts/domain"
)

func buildReference(t *testing.T, cycles int, value func(step, phaseIdx, featureIdx int) float64) *cyclestore.Result {
	t.Helper()
	steps := make([]int, cycles)
	for i := range steps {
		steps[i] = i + 1
	}
	table := testutil.BuildTable(testutil.TableSpec{
		Subject:  "REF01",
		Task:     "level_walking",
		Steps:    steps,
		Features: []string{"knee_flexion_angle_ipsi_rad"},
		Value:    value,
	})
	logger, _ := testutil.NewCaptureLogger(t)
	store := cyclestore.New(table, nil, 0.01, logger)
	result, err := store.Build(context.Background(), "REF01", "level_walking", nil)
	require.NoError(t, err)
	return result
}

func tuningConfig() config.TuningConfig {
	return config.TuningConfig{PercentileLow: 5, PercentileHigh: 95, MinSamples: 5}
}

func TestTuner_Tune_LinearInterpolatedPercentiles(t *testing.T) {
	// 20 cycles whose value at every phase sample is the cycle ordinal:
	// checkpoint columns are [0, 1, ..., 19].
	ref := buildReference(t, 20, func(step, phaseIdx, featureIdx int) float64 {
		return float64(step - 1)
	})

	tuner := NewTuner(tuningConfig(), nil)
	spec, err := tuner.Tune(context.Background(), ref, "level_walking", "synthetic")
	require.NoError(t, err)

	cps := spec.Checkpoints("level_walking", "knee_flexion_angle_ipsi_rad")
	require.Len(t, cps, len(domain.CheckpointPhases))
	for _, cp := range cps {
		assert.InDelta(t, 0.95, *cp.Min, 1e-9)
		assert.InDelta(t, 18.05, *cp.Max, 1e-9)
	}

	meta := spec.Metadata()
	assert.Equal(t, "synthetic", meta.Source)
	assert.Equal(t, "percentile [5, 95]", meta.Method)
	assert.NotEmpty(t, meta.GeneratedAt)
	assert.Empty(t, meta.LowConfidence)
}

func TestTuner_Tune_ExtremePercentilesAreMinMax(t *testing.T) {
	ref := buildReference(t, 12, func(step, phaseIdx, featureIdx int) float64 {
		return float64(step) * 1.5
	})

	cfg := config.TuningConfig{PercentileLow: 0, PercentileHigh: 100, MinSamples: 5}
	spec, err := NewTuner(cfg, nil).Tune(context.Background(), ref, "level_walking", "synthetic")
	require.NoError(t, err)

	cps := spec.Checkpoints("level_walking", "knee_flexion_angle_ipsi_rad")
	require.NotEmpty(t, cps)
	assert.Equal(t, 1.5, *cps[0].Min)
	assert.Equal(t, 18.0, *cps[0].Max)
}

func TestTuner_Tune_LowSampleCheckpointFlagged(t *testing.T) {
	ref := buildReference(t, 3, func(step, phaseIdx, featureIdx int) float64 {
		return float64(step)
	})

	logger, captured := testutil.NewCaptureLogger(t)
	spec, err := NewTuner(tuningConfig(), logger).Tune(context.Background(), ref, "level_walking", "tiny")
	require.NoError(t, err)

	// No bounds derived at all.
	assert.Empty(t, spec.Checkpoints("level_walking", "knee_flexion_angle_ipsi_rad"))

	meta := spec.Metadata()
	require.Len(t, meta.LowConfidence, len(domain.CheckpointPhases))
	assert.Contains(t, meta.LowConfidence, "level_walking/knee_flexion_angle_ipsi_rad@50")
	assert.True(t, captured.ContainsMessage("too few reference samples"))
}

func TestTuner_Tune_NaNSamplesExcluded(t *testing.T) {
	// Cycles 1..10 carry NaN; the remaining 10 carry their ordinal.
	ref := buildReference(t, 20, func(step, phaseIdx, featureIdx int) float64 {
		if step <= 10 {
			return math.NaN()
		}
		return float64(step)
	})

	cfg := config.TuningConfig{PercentileLow: 0, PercentileHigh: 100, MinSamples: 5}
	spec, err := NewTuner(cfg, nil).Tune(context.Background(), ref, "level_walking", "synthetic")
	require.NoError(t, err)

	cps := spec.Checkpoints("level_walking", "knee_flexion_angle_ipsi_rad")
	require.NotEmpty(t, cps)
	assert.Equal(t, 11.0, *cps[0].Min)
	assert.Equal(t, 20.0, *cps[0].Max)
}

func TestTuner_Tune_EmptyReferenceRejected(t *testing.T) {
	_, err := NewTuner(tuningConfig(), nil).Tune(context.Background(), nil, "level_walking", "x")
	require.Error(t, err)
}

func TestPercentile(t *testing.T) {
	values := []float64{3, 1, 2, 4}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{100, 4},
		{50, 2.5},
		{25, 1.75},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Percentile(values, tt.p), 1e-12)
	}

	// Input order preserved.
	assert.Equal(t, []float64{3, 1, 2, 4}, values)
}
