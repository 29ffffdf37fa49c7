package rangespec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "gaitkit/internal/errors"
	"gaitkit/pkg/contracts/domain"
)

const sampleDoc = `
metadata:
  source: gtech_2023
  method: percentile [5, 95]
tasks:
  level_walking:
    knee_flexion_angle_ipsi_rad:
      "0":
        min: -0.1
        max: 0.4
      "50":
        min: 0.02
        max: 0.3
      "75":
        min: 0.5
        max: 1.4
    hip_flexion_angle_ipsi_rad:
      "25":
        min: -0.2
        max: 0.6
`

func TestParse(t *testing.T) {
	spec, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "gtech_2023", spec.Metadata().Source)
	assert.Equal(t, []string{"level_walking"}, spec.Tasks())
	assert.True(t, spec.HasTask("level_walking"))
	assert.False(t, spec.HasTask("running"))
	assert.Equal(t,
		[]string{"hip_flexion_angle_ipsi_rad", "knee_flexion_angle_ipsi_rad"},
		spec.Variables("level_walking"))

	cps := spec.Checkpoints("level_walking", "knee_flexion_angle_ipsi_rad")
	require.Len(t, cps, 3)
	// Sorted by phase.
	assert.Equal(t, []float64{0, 50, 75}, []float64{cps[0].PhasePercent, cps[1].PhasePercent, cps[2].PhasePercent})
	assert.Equal(t, 0.02, *cps[1].Min)
	assert.Equal(t, 0.3, *cps[1].Max)
}

func TestParse_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "phase out of range",
			doc: `
tasks:
  level_walking:
    knee_flexion_angle_ipsi_rad:
      "120":
        min: 0
        max: 1
`,
			want: "out of [0,100]",
		},
		{
			name: "inverted bounds",
			doc: `
tasks:
  level_walking:
    knee_flexion_angle_ipsi_rad:
      "50":
        min: 2
        max: 1
`,
			want: "exceeds max",
		},
		{
			name: "duplicate phase index",
			doc: `
tasks:
  level_walking:
    knee_flexion_angle_ipsi_rad:
      "50":
        min: 0
        max: 1
      "50.1":
        min: 0
        max: 1
`,
			want: "same phase index",
		},
		{
			name: "non-numeric checkpoint key",
			doc: `
tasks:
  level_walking:
    knee_flexion_angle_ipsi_rad:
      "midstance":
        min: 0
        max: 1
`,
			want: "not a phase percentage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindConfig), "kind: %v", apperrors.KindOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSpec_Merge(t *testing.T) {
	base, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	overlay := NewBuilder(Metadata{Source: "retune_2024"})
	require.NoError(t, overlay.Add("level_walking", "knee_flexion_angle_ipsi_rad",
		domain.Checkpoint{PhasePercent: 50, Min: f(0.05), Max: f(0.25)}))
	require.NoError(t, overlay.Add("running", "knee_flexion_angle_ipsi_rad",
		domain.Checkpoint{PhasePercent: 25, Min: f(0.1), Max: f(1.0)}))

	merged := base.Merge(overlay.Spec())

	// Intersecting checkpoint overwritten.
	cps := merged.Checkpoints("level_walking", "knee_flexion_angle_ipsi_rad")
	require.Len(t, cps, 3)
	assert.Equal(t, 0.05, *cps[1].Min)
	assert.Equal(t, 0.25, *cps[1].Max)

	// Non-intersecting checkpoints preserved.
	assert.Equal(t, -0.1, *cps[0].Min)
	assert.Len(t, merged.Checkpoints("level_walking", "hip_flexion_angle_ipsi_rad"), 1)

	// New task added.
	assert.True(t, merged.HasTask("running"))

	// Inputs untouched.
	assert.Equal(t, 0.02, *base.Checkpoints("level_walking", "knee_flexion_angle_ipsi_rad")[1].Min)

	// Fresh metadata wins.
	assert.Equal(t, "retune_2024", merged.Metadata().Source)
}

func TestSpec_MarshalRoundTrip(t *testing.T) {
	spec, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	data, err := spec.Marshal()
	require.NoError(t, err)

	reparsed, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, spec.Tasks(), reparsed.Tasks())
	assert.Equal(t, spec.Variables("level_walking"), reparsed.Variables("level_walking"))
	assert.Equal(t,
		spec.Checkpoints("level_walking", "knee_flexion_angle_ipsi_rad"),
		reparsed.Checkpoints("level_walking", "knee_flexion_angle_ipsi_rad"))
	assert.Equal(t, "gtech_2023", reparsed.Metadata().Source)
}

func f(v float64) *float64 { return &v }
