package validation

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"gaitkit/internal/cyclestore"
	"gaitkit/internal/dataset"
	"gaitkit/internal/infrastructure"
	"gaitkit/internal/rangespec"
	"gaitkit/pkg/contracts/domain"
)

// Runner validates a whole dataset. Every (subject, task) unit is extracted
// and validated independently (units share only the read-only table and spec)
// so units run concurrently. The reduction into the report always happens in
// sorted unit order, making the output deterministic regardless of worker
// count or scheduling.
type Runner struct {
	store     *cyclestore.Store
	validator *Validator
	workers   int
	logger    *slog.Logger
}

// NewRunner creates a dataset runner over a cycle store. workers bounds
// concurrency; zero means GOMAXPROCS.
func NewRunner(store *cyclestore.Store, workers int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		store:     store,
		validator: NewValidator(logger),
		workers:   workers,
		logger:    logger,
	}
}

// unitOutcome is the per-(subject, task) intermediate result.
type unitOutcome struct {
	unit    dataset.SubjectTask
	total   int
	valid   int
	skipped []domain.SkippedStep
	results []domain.ValidationResult
}

// Run validates every (subject, task) unit of the table against the spec and
// aggregates a dataset report. Units whose task has no defined ranges are
// skipped with a warning: an unvalidatable unit is a coverage gap, not a
// broken dataset. Cancellation is honored between units.
func (r *Runner) Run(ctx context.Context, table *dataset.Table, spec *rangespec.Spec) (*domain.DatasetReport, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	logger := infrastructure.LoggerFromContext(ctx)

	units := table.SubjectTasks()
	outcomes := make([]*unitOutcome, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, unit := range units {
		if !spec.HasTask(unit.Task) {
			logger.Warn("task has no defined ranges, unit skipped",
				slog.String("subject", unit.Subject),
				slog.String("task", unit.Task))
			continue
		}
		g.Go(func() error {
			outcome, err := r.runUnit(gctx, unit, spec)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &domain.DatasetReport{
		RunID:       infrastructure.GetTraceID(ctx),
		GeneratedAt: time.Now().UTC(),
	}

	// Units arrive sorted by (task, subject); fold consecutive same-task
	// outcomes into one TaskReport each.
	var current *domain.TaskReport
	for _, outcome := range outcomes {
		if outcome == nil {
			continue
		}
		if current == nil || current.Task != outcome.unit.Task {
			report.Tasks = append(report.Tasks, domain.TaskReport{Task: outcome.unit.Task})
			current = &report.Tasks[len(report.Tasks)-1]
		}
		current.TotalCycles += outcome.total
		current.ValidCycles += outcome.valid
		current.SkippedSteps = append(current.SkippedSteps, outcome.skipped...)
		current.Failures = append(current.Failures, Flatten(outcome.results)...)
	}

	logger.Info("dataset validated",
		slog.Int("units", len(units)),
		slog.Int("tasks", len(report.Tasks)),
		slog.Int("total_cycles", report.TotalCycles()),
		slog.Int("valid_cycles", report.ValidCycles()))

	return report, nil
}

func (r *Runner) runUnit(ctx context.Context, unit dataset.SubjectTask, spec *rangespec.Spec) (*unitOutcome, error) {
	extraction, err := r.store.Build(ctx, unit.Subject, unit.Task, nil)
	if err != nil {
		return nil, err
	}

	results, err := r.validator.Validate(extraction, unit.Task, spec)
	if err != nil {
		return nil, err
	}

	return &unitOutcome{
		unit:    unit,
		total:   extraction.Array.NumCycles(),
		valid:   countValid(results),
		skipped: extraction.Skipped,
		results: results,
	}, nil
}
