package validation

import (
	"log/slog"
	"math"

	"gaitkit/internal/cyclestore"
)

// Detector flags cycles that deviate statistically from the dataset's own
// mean pattern, independent of any range specification.
type Detector struct {
	threshold float64
	logger    *slog.Logger
}

// NewDetector creates an outlier detector with the given mean-|z| threshold.
func NewDetector(threshold float64, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{threshold: threshold, logger: logger}
}

// FindOutliers returns the indices of outlier cycles, ascending.
//
// The per-cycle deviation score is the mean absolute z-score across all
// phase × feature positions, against the per-position mean and standard
// deviation over all cycles. Mean (rather than max) is deliberate: it flags
// cycles whose whole trajectory deviates instead of cycles with one noisy
// sample. Positions with zero standard deviation contribute z = 0, so a
// dataset of identical cycles produces no outliers and no division by zero;
// NaN samples also contribute zero.
func (d *Detector) FindOutliers(arr *cyclestore.Array) []int {
	nCycles, nPoints, nFeatures := arr.Shape()
	if nCycles == 0 || nPoints*nFeatures == 0 {
		return nil
	}

	means, stds := arr.MeanStd()

	var outliers []int
	positions := float64(nPoints * nFeatures)
	for c := 0; c < nCycles; c++ {
		sum := 0.0
		for p := 0; p < nPoints; p++ {
			for f := 0; f < nFeatures; f++ {
				idx := p*nFeatures + f
				if stds[idx] == 0 {
					continue
				}
				v := arr.At(c, p, f)
				if math.IsNaN(v) {
					continue
				}
				sum += math.Abs((v - means[idx]) / stds[idx])
			}
		}
		score := sum / positions
		if score > d.threshold {
			d.logger.Debug("outlier cycle detected",
				slog.Int("cycle", c),
				slog.Float64("score", score),
				slog.Float64("threshold", d.threshold))
			outliers = append(outliers, c)
		}
	}
	return outliers
}
