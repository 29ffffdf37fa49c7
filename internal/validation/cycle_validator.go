// Package validation classifies extracted cycles against range
// specifications and flags statistical outliers.
//
// Out-of-range observations are not errors: they are ValidationFailure
// records returned for reporting. Every violation of a cycle is enumerated;
// diagnostics matter more than early exit.
package validation

import (
	"log/slog"
	"math"

	"gaitkit/internal/cyclestore"
	apperrors "gaitkit/internal/errors"
	"gaitkit/internal/rangespec"
	"gaitkit/pkg/contracts/domain"
)

// Validator evaluates cycles against a range specification.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a cycle validator.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

// Validate checks every cycle of an extraction against the task's
// checkpoints. Variables the extraction does not carry are skipped entirely:
// missing data is not out-of-range data. A NaN observation at a constrained
// checkpoint is a failure, because it cannot be verified in-range.
//
// Validating a task the spec does not define is a configuration error.
func (v *Validator) Validate(result *cyclestore.Result, task string, spec *rangespec.Spec) ([]domain.ValidationResult, error) {
	if spec == nil {
		return nil, apperrors.Configf("nil range specification")
	}
	if !spec.HasTask(task) {
		return nil, apperrors.New(apperrors.KindNotFound,
			"range specification defines no task "+task, nil)
	}

	variables := spec.Variables(task)

	results := make([]domain.ValidationResult, result.Array.NumCycles())
	for c := 0; c < result.Array.NumCycles(); c++ {
		res := domain.ValidationResult{Key: result.Keys[c]}

		for _, variable := range variables {
			fIdx, ok := result.FeatureIndex(variable)
			if !ok {
				continue
			}
			for _, cp := range spec.Checkpoints(task, variable) {
				if cp.Min == nil && cp.Max == nil {
					continue
				}
				observed := result.Array.At(c, domain.PhaseIndex(cp.PhasePercent), fIdx)
				if inRange(observed, cp) {
					continue
				}
				res.Failures = append(res.Failures, domain.ValidationFailure{
					Key:          result.Keys[c],
					Variable:     variable,
					PhasePercent: cp.PhasePercent,
					Observed:     observed,
					ExpectedMin:  boundOr(cp.Min, math.Inf(-1)),
					ExpectedMax:  boundOr(cp.Max, math.Inf(1)),
				})
			}
		}

		res.Valid = len(res.Failures) == 0
		results[c] = res
	}

	v.logger.Debug("cycles validated",
		slog.String("task", task),
		slog.Int("cycles", len(results)),
		slog.Int("invalid", len(results)-countValid(results)))

	return results, nil
}

// inRange applies inclusive bounds. NaN never verifies.
func inRange(observed float64, cp domain.Checkpoint) bool {
	if math.IsNaN(observed) {
		return false
	}
	if cp.Min != nil && observed < *cp.Min {
		return false
	}
	if cp.Max != nil && observed > *cp.Max {
		return false
	}
	return true
}

func boundOr(b *float64, fallback float64) float64 {
	if b != nil {
		return *b
	}
	return fallback
}

func countValid(results []domain.ValidationResult) int {
	n := 0
	for i := range results {
		if results[i].Valid {
			n++
		}
	}
	return n
}

// Flatten concatenates per-cycle failures in cycle order.
func Flatten(results []domain.ValidationResult) []domain.ValidationFailure {
	var failures []domain.ValidationFailure
	for i := range results {
		failures = append(failures, results[i].Failures...)
	}
	return failures
}

// StepLabel is the categorical per-cycle classification derived from
// failure-list presence.
type StepLabel string

const (
	// StepLabelValid marks a cycle with zero recorded failures.
	StepLabelValid StepLabel = "valid"
	// StepLabelInvalid marks a cycle with at least one failure.
	StepLabelInvalid StepLabel = "invalid"
)

// ClassifySteps derives one label per key purely from failure presence.
// It holds no state: the same keys and failures always yield the same labels.
func ClassifySteps(keys []domain.CycleKey, failures []domain.ValidationFailure) []StepLabel {
	failed := make(map[domain.CycleKey]struct{}, len(failures))
	for i := range failures {
		failed[failures[i].Key] = struct{}{}
	}

	labels := make([]StepLabel, len(keys))
	for i, key := range keys {
		if _, ok := failed[key]; ok {
			labels[i] = StepLabelInvalid
		} else {
			labels[i] = StepLabelValid
		}
	}
	return labels
}
