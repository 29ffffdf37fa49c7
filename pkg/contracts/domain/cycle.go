package domain

// PointsPerCycle is the canonical number of phase samples in one normalized
// movement cycle. Every (subject, task, step) group in a conformant table has
// exactly this many rows, spanning phase 0 through 100.
const PointsPerCycle = 150

// Structural column names required in every observation table.
const (
	ColumnSubject  = "subject"
	ColumnTask     = "task"
	ColumnTaskID   = "task_id"
	ColumnTaskInfo = "task_info"
	ColumnStep     = "step"
	ColumnPhase    = "phase"
)

// RequiredColumns lists the structural columns, in canonical order. A table
// missing any of these cannot be loaded.
var RequiredColumns = []string{
	ColumnSubject,
	ColumnTask,
	ColumnTaskID,
	ColumnTaskInfo,
	ColumnStep,
	ColumnPhase,
}

// CycleKey identifies one movement cycle inside a dataset.
type CycleKey struct {
	Subject string `json:"subject"`
	Task    string `json:"task"`
	Step    int    `json:"step"`
}

// Row is one long-format observation: a single phase sample of a single step,
// with the feature values recorded at that sample.
type Row struct {
	Subject  string
	Task     string
	TaskID   string
	TaskInfo string
	Step     int
	Phase    float64
	Features []float64 // aligned with the table's feature-name list
}

// SkippedStep records a step excluded from cycle extraction for a structural
// reason (wrong row count, malformed phase grid). Skips are data, not errors:
// the rest of the dataset keeps processing.
type SkippedStep struct {
	Key    CycleKey `json:"key"`
	Reason string   `json:"reason"`
}
