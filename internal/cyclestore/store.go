package cyclestore

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"gaitkit/internal/dataset"
	"gaitkit/internal/naming"
	"gaitkit/pkg/contracts/domain"
)

// Store builds and caches cycle arrays over one immutable observation table.
// The cache is keyed by (subject, task, features); concurrent requests for
// the same key resolve to a single build. A Store never mutates cached
// results; if the underlying table changes, build a new Store.
type Store struct {
	table     *dataset.Table
	catalog   *naming.Catalog
	tolerance float64
	logger    *slog.Logger

	group singleflight.Group
	cache sync.Map // cacheKey -> *Result
}

// New creates a Store over a loaded table. tolerance is the maximum phase
// deviation from the canonical grid, in phase percent. A nil catalog selects
// the standard catalog; its ordering drives the default feature selection.
func New(table *dataset.Table, catalog *naming.Catalog, tolerance float64, logger *slog.Logger) *Store {
	if catalog == nil {
		catalog = naming.Standard()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		table:     table,
		catalog:   catalog,
		tolerance: tolerance,
		logger:    logger,
	}
}

// Build returns the cycle array for (subject, task) restricted to the given
// features, in the caller's order. A nil features slice selects every
// catalog-conformant table feature in canonical catalog order. Requested
// features absent from the table are dropped with a warning. Repeated calls
// with the same key hit the cache.
func (s *Store) Build(ctx context.Context, subject, task string, features []string) (*Result, error) {
	if features == nil {
		features = s.catalog.CanonicalOrder(s.table.Features())
	}
	key := cacheKey(subject, task, features)

	if cached, ok := s.cache.Load(key); ok {
		return cached.(*Result), nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if cached, ok := s.cache.Load(key); ok {
			return cached.(*Result), nil
		}
		result, err := s.build(ctx, subject, task, features)
		if err != nil {
			return nil, err
		}
		s.cache.Store(key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func cacheKey(subject, task string, features []string) string {
	return subject + "\x1f" + task + "\x1f" + strings.Join(features, ",")
}

// build performs the sort+reshape extraction. Rows are sorted once by
// (step, phase) so the row order maps directly onto (cycle, phase) indices
// without per-row lookups.
func (s *Store) build(ctx context.Context, subject, task string, features []string) (*Result, error) {
	logger := s.logger.With(
		slog.String("subject", subject),
		slog.String("task", task))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Resolve requested features against the table, preserving the
	// caller's order. Absent features are dropped, not fatal.
	var (
		kept    []string
		keptIdx []int
		dropped []string
	)
	for _, f := range features {
		if idx, ok := s.table.FeatureIndex(f); ok {
			kept = append(kept, f)
			keptIdx = append(keptIdx, idx)
		} else {
			dropped = append(dropped, f)
		}
	}
	if len(dropped) > 0 {
		logger.Warn("requested features absent from table",
			slog.Any("features", dropped))
	}

	matched := filterRows(s.table.Rows(), subject, task)
	if len(matched) == 0 {
		logger.Debug("no rows match subject and task")
		return &Result{
			Array:           NewArray(0, domain.PointsPerCycle, len(kept)),
			Features:        kept,
			DroppedFeatures: dropped,
		}, nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Step != matched[j].Step {
			return matched[i].Step < matched[j].Step
		}
		return matched[i].Phase < matched[j].Phase
	})

	// Partition the sorted rows into per-step runs and vet each run.
	var (
		validRuns [][]domain.Row
		keys      []domain.CycleKey
		skipped   []domain.SkippedStep
	)
	for start := 0; start < len(matched); {
		end := start
		for end < len(matched) && matched[end].Step == matched[start].Step {
			end++
		}
		run := matched[start:end]
		key := domain.CycleKey{Subject: subject, Task: task, Step: run[0].Step}

		if reason := s.vetRun(run); reason != "" {
			skipped = append(skipped, domain.SkippedStep{Key: key, Reason: reason})
			logger.Warn("step skipped",
				slog.Int("step", key.Step),
				slog.String("reason", reason))
		} else {
			validRuns = append(validRuns, run)
			keys = append(keys, key)
		}
		start = end
	}

	arr := NewArray(len(validRuns), domain.PointsPerCycle, len(kept))
	for c, run := range validRuns {
		for p, row := range run {
			for f, idx := range keptIdx {
				arr.Set(c, p, f, row.Features[idx])
			}
		}
	}

	logger.Info("cycle array built",
		slog.Int("cycles", len(validRuns)),
		slog.Int("skipped_steps", len(skipped)),
		slog.Int("features", len(kept)))

	return &Result{
		Array:           arr,
		Features:        kept,
		Keys:            keys,
		Skipped:         skipped,
		DroppedFeatures: dropped,
	}, nil
}

// vetRun checks one step's rows against the structural invariants and
// returns a skip reason, or "" when the run is valid.
func (s *Store) vetRun(run []domain.Row) string {
	if len(run) != domain.PointsPerCycle {
		return fmt.Sprintf("expected %d rows, got %d", domain.PointsPerCycle, len(run))
	}
	for p, row := range run {
		want := float64(p) * 100 / float64(domain.PointsPerCycle-1)
		if math.Abs(row.Phase-want) > s.tolerance {
			return fmt.Sprintf("phase %g at index %d deviates from grid value %g", row.Phase, p, want)
		}
	}
	return ""
}

func filterRows(rows []domain.Row, subject, task string) []domain.Row {
	var out []domain.Row
	for i := range rows {
		if rows[i].Subject == subject && rows[i].Task == task {
			out = append(out, rows[i])
		}
	}
	return out
}
