package domain

// CheckpointPhases are the canonical cycle percentages at which range bounds
// are defined.
var CheckpointPhases = []float64{0, 25, 50, 75}

// Checkpoint is one validation bound: at PhasePercent of the cycle, the named
// variable must lie inside [Min, Max]. A nil bound means the checkpoint is
// unconstrained on that side.
type Checkpoint struct {
	PhasePercent float64  `yaml:"phase" json:"phase" validate:"gte=0,lte=100"`
	Min          *float64 `yaml:"min" json:"min"`
	Max          *float64 `yaml:"max" json:"max"`
}

// PhaseIndex maps a checkpoint percentage onto the discrete 150-point grid.
func PhaseIndex(phasePercent float64) int {
	idx := int(phasePercent/100*float64(PointsPerCycle-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx > PointsPerCycle-1 {
		idx = PointsPerCycle - 1
	}
	return idx
}

// ValidationFailure records one out-of-range (or unverifiable) observation.
// Failures are data returned for reporting, never raised as errors.
type ValidationFailure struct {
	Key          CycleKey `json:"key"`
	Variable     string   `json:"variable"`
	PhasePercent float64  `json:"phase_percent"`
	Observed     float64  `json:"observed"`
	ExpectedMin  float64  `json:"expected_min"`
	ExpectedMax  float64  `json:"expected_max"`
}

// ValidationResult is the outcome for one cycle: valid iff Failures is empty.
type ValidationResult struct {
	Key      CycleKey            `json:"key"`
	Valid    bool                `json:"valid"`
	Failures []ValidationFailure `json:"failures,omitempty"`
}
