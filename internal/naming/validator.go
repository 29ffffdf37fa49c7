package naming

import (
	"fmt"
	"log/slog"
	"strings"
)

// Validator checks feature-column names against a catalog.
type Validator struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewValidator creates a naming validator. A nil catalog selects the standard
// catalog and a nil logger defaults to slog.Default().
func NewValidator(catalog *Catalog, logger *slog.Logger) *Validator {
	if catalog == nil {
		catalog = Standard()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{catalog: catalog, logger: logger}
}

// Catalog returns the catalog the validator checks against.
func (v *Validator) Catalog() *Catalog {
	return v.catalog
}

// Report is the outcome of validating a set of feature-column names.
// Non-standard names are not errors: downstream processing carries them
// through unchanged, they just miss out on catalog-driven defaults.
type Report struct {
	StandardCompliant []string `json:"standard_compliant"`
	NonStandard       []string `json:"non_standard"`
	Warnings          []string `json:"warnings,omitempty"`
	Errors            []string `json:"errors,omitempty"`
}

// Validate classifies each feature column name as standard-compliant or
// non-standard, attaching a warning with the suspected problem for each
// non-standard name.
func (v *Validator) Validate(featureColumns []string) Report {
	var report Report

	for _, name := range featureColumns {
		if strings.TrimSpace(name) == "" {
			report.Errors = append(report.Errors, "empty feature column name")
			continue
		}
		parts, err := Split(name)
		if err != nil {
			report.NonStandard = append(report.NonStandard, name)
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		if !v.catalog.Conformant(parts) {
			report.NonStandard = append(report.NonStandard, name)
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s: %s", name, v.describeMismatch(parts)))
			continue
		}
		report.StandardCompliant = append(report.StandardCompliant, name)
	}

	v.logger.Debug("feature naming validated",
		slog.Int("standard", len(report.StandardCompliant)),
		slog.Int("non_standard", len(report.NonStandard)))

	return report
}

// Split decomposes a feature name into taxonomy tokens. Units may themselves
// contain underscores (rad_s, Nm_kg), so everything after the fourth token is
// the unit.
func Split(name string) (Parts, error) {
	tokens := strings.Split(name, "_")
	if len(tokens) < 5 {
		return Parts{}, fmt.Errorf("expected joint_motion_measurement_side_unit, got %d tokens", len(tokens))
	}
	return Parts{
		Joint:       tokens[0],
		Motion:      tokens[1],
		Measurement: tokens[2],
		Side:        tokens[3],
		Unit:        strings.Join(tokens[4:], "_"),
	}, nil
}

func (v *Validator) describeMismatch(p Parts) string {
	switch {
	case !v.catalog.HasJoint(p.Joint):
		return fmt.Sprintf("unknown joint %q", p.Joint)
	case !v.catalog.HasMotion(p.Motion):
		return fmt.Sprintf("unknown motion %q", p.Motion)
	case !v.catalog.HasMeasurement(p.Measurement):
		return fmt.Sprintf("unknown measurement %q", p.Measurement)
	case !v.catalog.HasSide(p.Side):
		return fmt.Sprintf("unknown side %q", p.Side)
	default:
		return fmt.Sprintf("unknown unit %q", p.Unit)
	}
}
