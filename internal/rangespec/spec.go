// Package rangespec holds biomechanical plausibility envelopes: per
// (task, variable, phase checkpoint) min/max bounds, loadable from a YAML
// document and derivable from reference data by the Tuner.
//
// A loaded Spec is immutable. Merging produces a new Spec. Configuration
// problems (duplicate checkpoints, inverted bounds, bad phases) fail at load
// time: a broken spec is a broken configuration, not noisy data.
package rangespec

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	apperrors "gaitkit/internal/errors"
	"gaitkit/pkg/contracts/domain"
)

var structValidator = validator.New()

// Metadata describes how a spec was produced. Informational only: it never
// affects validation semantics.
type Metadata struct {
	Source      string `yaml:"source,omitempty"`
	Method      string `yaml:"method,omitempty"`
	GeneratedAt string `yaml:"generated_at,omitempty"`
	// LowConfidence lists checkpoints left unconstrained because too few
	// reference cycles were available, as "task/variable@phase" strings.
	LowConfidence []string `yaml:"low_confidence,omitempty"`
}

// Spec is an immutable range specification.
type Spec struct {
	meta  Metadata
	tasks map[string]map[string][]domain.Checkpoint // sorted by phase
}

// document is the persisted YAML shape:
// tasks -> task -> variable -> "phase" -> {min, max}.
type document struct {
	Metadata Metadata                                `yaml:"metadata,omitempty"`
	Tasks    map[string]map[string]map[string]bounds `yaml:"tasks"`
}

type bounds struct {
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

// Load reads and validates a range specification file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.IO(fmt.Sprintf("read range spec %s", path), err)
	}
	return Parse(data)
}

// Parse decodes and validates a range specification document.
func Parse(data []byte) (*Spec, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Config("malformed range spec document", err)
	}

	builder := NewBuilder(doc.Metadata)
	for task, variables := range doc.Tasks {
		for variable, checkpoints := range variables {
			for phaseStr, b := range checkpoints {
				phase, err := strconv.ParseFloat(phaseStr, 64)
				if err != nil {
					return nil, apperrors.Configf("task %s variable %s: checkpoint key %q is not a phase percentage",
						task, variable, phaseStr)
				}
				cp := domain.Checkpoint{PhasePercent: phase, Min: b.Min, Max: b.Max}
				if err := builder.Add(task, variable, cp); err != nil {
					return nil, err
				}
			}
		}
	}
	return builder.Spec(), nil
}

// Builder accumulates checkpoints into a Spec, rejecting configuration
// errors as they are added.
type Builder struct {
	meta  Metadata
	tasks map[string]map[string][]domain.Checkpoint
}

// NewBuilder creates an empty spec builder.
func NewBuilder(meta Metadata) *Builder {
	return &Builder{
		meta:  meta,
		tasks: make(map[string]map[string][]domain.Checkpoint),
	}
}

// Add registers one checkpoint. It rejects out-of-range phases, inverted
// bounds, and a second checkpoint for the same (task, variable) that rounds
// to the same discrete phase index.
func (b *Builder) Add(task, variable string, cp domain.Checkpoint) error {
	if err := structValidator.Struct(cp); err != nil {
		return apperrors.Config(
			fmt.Sprintf("task %s variable %s: phase %g out of [0,100]", task, variable, cp.PhasePercent), err)
	}
	if cp.Min != nil && cp.Max != nil && *cp.Min > *cp.Max {
		return apperrors.Configf("task %s variable %s phase %g: min %g exceeds max %g",
			task, variable, cp.PhasePercent, *cp.Min, *cp.Max)
	}

	idx := domain.PhaseIndex(cp.PhasePercent)
	for _, existing := range b.tasks[task][variable] {
		if domain.PhaseIndex(existing.PhasePercent) == idx {
			return apperrors.Configf("task %s variable %s: checkpoints %g and %g collapse to the same phase index %d",
				task, variable, existing.PhasePercent, cp.PhasePercent, idx)
		}
	}

	if b.tasks[task] == nil {
		b.tasks[task] = make(map[string][]domain.Checkpoint)
	}
	b.tasks[task][variable] = append(b.tasks[task][variable], cp)
	return nil
}

// Spec finalizes the builder, sorting each variable's checkpoints by phase.
func (b *Builder) Spec() *Spec {
	for _, variables := range b.tasks {
		for _, cps := range variables {
			sort.Slice(cps, func(i, j int) bool {
				return cps[i].PhasePercent < cps[j].PhasePercent
			})
		}
	}
	return &Spec{meta: b.meta, tasks: b.tasks}
}

// Metadata returns the generation metadata.
func (s *Spec) Metadata() Metadata {
	return s.meta
}

// Tasks returns the task names with defined ranges, sorted.
func (s *Spec) Tasks() []string {
	tasks := make([]string, 0, len(s.tasks))
	for t := range s.tasks {
		tasks = append(tasks, t)
	}
	sort.Strings(tasks)
	return tasks
}

// HasTask reports whether the spec defines ranges for a task.
func (s *Spec) HasTask(task string) bool {
	_, ok := s.tasks[task]
	return ok
}

// Variables returns the variables with checkpoints for a task, sorted.
func (s *Spec) Variables(task string) []string {
	variables := make([]string, 0, len(s.tasks[task]))
	for v := range s.tasks[task] {
		variables = append(variables, v)
	}
	sort.Strings(variables)
	return variables
}

// Checkpoints returns a variable's checkpoints sorted by phase.
func (s *Spec) Checkpoints(task, variable string) []domain.Checkpoint {
	return s.tasks[task][variable]
}

// Merge overlays new ranges onto this spec: bounds for intersecting
// (task, variable, phase index) keys are overwritten, everything else is
// preserved. Neither input is mutated. Overlay metadata wins when set.
func (s *Spec) Merge(overlay *Spec) *Spec {
	meta := overlay.meta
	if meta.Source == "" && meta.Method == "" && meta.GeneratedAt == "" && len(meta.LowConfidence) == 0 {
		meta = s.meta
	}
	builder := NewBuilder(meta)

	// Overlay first so its bounds claim the phase indices.
	for task, variables := range overlay.tasks {
		for variable, cps := range variables {
			for _, cp := range cps {
				// Both inputs were already vetted.
				_ = builder.Add(task, variable, cp)
			}
		}
	}
	for task, variables := range s.tasks {
		for variable, cps := range variables {
			for _, cp := range cps {
				_ = builder.Add(task, variable, cp)
			}
		}
	}
	return builder.Spec()
}

// Marshal renders the spec into its persisted YAML document form.
func (s *Spec) Marshal() ([]byte, error) {
	doc := document{
		Metadata: s.meta,
		Tasks:    make(map[string]map[string]map[string]bounds, len(s.tasks)),
	}
	for task, variables := range s.tasks {
		doc.Tasks[task] = make(map[string]map[string]bounds, len(variables))
		for variable, cps := range variables {
			m := make(map[string]bounds, len(cps))
			for _, cp := range cps {
				m[formatPhase(cp.PhasePercent)] = bounds{Min: cp.Min, Max: cp.Max}
			}
			doc.Tasks[task][variable] = m
		}
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, apperrors.Internal("marshal range spec", err)
	}
	return out, nil
}

// Save writes the spec to a file.
func (s *Spec) Save(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.IO(fmt.Sprintf("write range spec %s", path), err)
	}
	return nil
}

func formatPhase(phase float64) string {
	return fmt.Sprintf("%g", phase)
}
