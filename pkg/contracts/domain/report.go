package domain

import "time"

// TaskReport aggregates validation over all cycles of one task.
type TaskReport struct {
	Task         string              `json:"task"`
	TotalCycles  int                 `json:"total_cycles"`
	ValidCycles  int                 `json:"valid_cycles"`
	SkippedSteps []SkippedStep       `json:"skipped_steps,omitempty"`
	Failures     []ValidationFailure `json:"failures,omitempty"`
}

// Compliance is the fraction of structurally valid cycles that passed every
// checkpoint. Zero cycles yields 0, not NaN.
func (r TaskReport) Compliance() float64 {
	if r.TotalCycles == 0 {
		return 0
	}
	return float64(r.ValidCycles) / float64(r.TotalCycles)
}

// DatasetReport is the dataset-level validation report consumed by the
// external reporting and plotting collaborators. Tasks is always sorted by
// task name so the report is reproducible regardless of worker scheduling.
type DatasetReport struct {
	RunID       string       `json:"run_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Tasks       []TaskReport `json:"tasks"`
}

// TotalCycles sums cycle counts across tasks.
func (r DatasetReport) TotalCycles() int {
	n := 0
	for _, t := range r.Tasks {
		n += t.TotalCycles
	}
	return n
}

// ValidCycles sums passing cycle counts across tasks.
func (r DatasetReport) ValidCycles() int {
	n := 0
	for _, t := range r.Tasks {
		n += t.ValidCycles
	}
	return n
}
