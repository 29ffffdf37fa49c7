package testutil

import (
	"gaitkit/internal/dataset"
	"gaitkit/pkg/contracts/domain"
)

// TableSpec describes a synthetic observation table.
type TableSpec struct {
	Subject  string
	Task     string
	Steps    []int
	Features []string
	// Value produces the feature value at a given step, phase index and
	// feature index. Nil means zero everywhere.
	Value func(step, phaseIdx, featureIdx int) float64
	// RowsPerStep overrides the canonical 150 rows for listed steps, to
	// fabricate structural defects.
	RowsPerStep map[int]int
}

// BuildTable materializes a conformant long-format table (phase 0..100 over
// 150 points per step) from the spec, with optional structural defects.
func BuildTable(specs ...TableSpec) *dataset.Table {
	var features []string
	if len(specs) > 0 {
		features = specs[0].Features
	}

	var rows []domain.Row
	for _, spec := range specs {
		for _, step := range spec.Steps {
			n := domain.PointsPerCycle
			if override, ok := spec.RowsPerStep[step]; ok {
				n = override
			}
			for p := 0; p < n; p++ {
				phase := float64(p) * 100 / float64(domain.PointsPerCycle-1)
				values := make([]float64, len(spec.Features))
				if spec.Value != nil {
					for f := range spec.Features {
						values[f] = spec.Value(step, p, f)
					}
				}
				rows = append(rows, domain.Row{
					Subject:  spec.Subject,
					Task:     spec.Task,
					TaskID:   spec.Task + "_01",
					TaskInfo: "speed:1.2,incline:0",
					Step:     step,
					Phase:    phase,
					Features: values,
				})
			}
		}
	}
	return dataset.NewTable(features, rows)
}

// Float64Ptr returns a pointer to v. Handy for optional bounds in fixtures.
func Float64Ptr(v float64) *float64 {
	return &v
}
