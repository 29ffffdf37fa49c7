package rangespec

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"gaitkit/internal/config"
	"gaitkit/internal/cyclestore"
	apperrors "gaitkit/internal/errors"
	"gaitkit/pkg/contracts/domain"
)

// Tuner derives range bounds from trusted reference data: for every
// (variable, checkpoint) it takes the [low, high] percentile interval of the
// observed values across all structurally valid reference cycles.
type Tuner struct {
	cfg    config.TuningConfig
	logger *slog.Logger
}

// NewTuner creates a tuner.
func NewTuner(cfg config.TuningConfig, logger *slog.Logger) *Tuner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tuner{cfg: cfg, logger: logger}
}

// Tune computes a fresh Spec for one task from a reference extraction.
// Checkpoints with fewer than the configured minimum sample count are left
// unconstrained and flagged low-confidence in the metadata; a percentile
// over a handful of samples is worse than no bound at all.
func (t *Tuner) Tune(ctx context.Context, ref *cyclestore.Result, task, source string) (*Spec, error) {
	if ref == nil || ref.Empty() {
		return nil, apperrors.Configf("task %s: reference extraction holds no valid cycles", task)
	}

	meta := Metadata{
		Source:      source,
		Method:      fmt.Sprintf("percentile [%g, %g]", t.cfg.PercentileLow, t.cfg.PercentileHigh),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	builder := NewBuilder(meta)

	column := make([]float64, 0, ref.Array.NumCycles())
	for _, variable := range ref.Features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fIdx, _ := ref.FeatureIndex(variable)

		for _, phase := range domain.CheckpointPhases {
			pIdx := domain.PhaseIndex(phase)

			column = column[:0]
			for c := 0; c < ref.Array.NumCycles(); c++ {
				if v := ref.Array.At(c, pIdx, fIdx); !math.IsNaN(v) {
					column = append(column, v)
				}
			}

			if len(column) < t.cfg.MinSamples {
				flag := fmt.Sprintf("%s/%s@%g", task, variable, phase)
				meta.LowConfidence = append(meta.LowConfidence, flag)
				t.logger.Warn("checkpoint left unconstrained: too few reference samples",
					slog.String("task", task),
					slog.String("variable", variable),
					slog.Float64("phase", phase),
					slog.Int("samples", len(column)),
					slog.Int("min_samples", t.cfg.MinSamples))
				continue
			}

			low := Percentile(column, t.cfg.PercentileLow)
			high := Percentile(column, t.cfg.PercentileHigh)
			cp := domain.Checkpoint{PhasePercent: phase, Min: &low, Max: &high}
			if err := builder.Add(task, variable, cp); err != nil {
				return nil, err
			}
		}
	}

	builder.meta = meta
	spec := builder.Spec()

	t.logger.Info("range spec tuned",
		slog.String("task", task),
		slog.String("source", source),
		slog.Int("variables", len(ref.Features)),
		slog.Int("low_confidence", len(meta.LowConfidence)))

	return spec, nil
}

// Percentile computes the p-th percentile of values using linear
// interpolation between order statistics: the value at fractional rank
// p/100*(n-1) of the sorted sample. The input is not modified.
func Percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
