package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaitkit/internal/cyclestore"
	"gaitkit/internal/dataset"
	"gaitkit/internal/rangespec"
	"gaitkit/internal/shared/testutil"
	"gaitkit/pkg/contracts/domain"
)

func runnerFixtureTable() *dataset.Table {
	value := func(v float64) func(step, phaseIdx, featureIdx int) float64 {
		return func(step, phaseIdx, featureIdx int) float64 { return v }
	}
	return testutil.BuildTable(
		testutil.TableSpec{
			Subject: "SUB01", Task: "level_walking", Steps: []int{1, 2},
			Features: []string{kneeAngle}, Value: value(0.1),
		},
		testutil.TableSpec{
			Subject: "SUB02", Task: "level_walking", Steps: []int{1},
			Features: []string{kneeAngle}, Value: value(0.79),
		},
		testutil.TableSpec{
			Subject: "SUB01", Task: "running", Steps: []int{1},
			Features: []string{kneeAngle}, Value: value(0.5),
		},
		testutil.TableSpec{
			Subject: "SUB03", Task: "incline_walking", Steps: []int{1},
			Features: []string{kneeAngle}, Value: value(0.5),
		},
	)
}

func runnerFixtureSpec(t *testing.T) *rangespec.Spec {
	t.Helper()
	b := rangespec.NewBuilder(rangespec.Metadata{Source: "test"})
	require.NoError(t, b.Add("level_walking", kneeAngle, cp(50, 0.02, 0.30)))
	require.NoError(t, b.Add("running", kneeAngle, cp(50, 0.0, 1.0)))
	return b.Spec()
}

func TestRunner_Run(t *testing.T) {
	table := runnerFixtureTable()
	spec := runnerFixtureSpec(t)
	logger, captured := testutil.NewCaptureLogger(t)
	store := cyclestore.New(table, nil, 0.01, logger)

	report, err := NewRunner(store, 4, logger).Run(context.Background(), table, spec)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.RunID)

	// incline_walking has no ranges: skipped with a warning, not reported.
	require.Len(t, report.Tasks, 2)
	assert.True(t, captured.ContainsMessage("no defined ranges"))

	// Sorted task order.
	assert.Equal(t, "level_walking", report.Tasks[0].Task)
	assert.Equal(t, "running", report.Tasks[1].Task)

	walking := report.Tasks[0]
	assert.Equal(t, 3, walking.TotalCycles)
	assert.Equal(t, 2, walking.ValidCycles)
	require.Len(t, walking.Failures, 1)
	assert.Equal(t, "SUB02", walking.Failures[0].Key.Subject)
	assert.InDelta(t, 2.0/3.0, walking.Compliance(), 1e-12)
}

func TestRunner_Run_Deterministic(t *testing.T) {
	table := runnerFixtureTable()
	spec := runnerFixtureSpec(t)

	var reports []*domain.DatasetReport
	for _, workers := range []int{1, 2, 8} {
		logger, _ := testutil.NewCaptureLogger(t)
		store := cyclestore.New(table, nil, 0.01, logger)
		report, err := NewRunner(store, workers, logger).Run(context.Background(), table, spec)
		require.NoError(t, err)
		reports = append(reports, report)
	}

	for i := 1; i < len(reports); i++ {
		assert.Equal(t, reports[0].Tasks, reports[i].Tasks)
	}
}

func TestRunner_Run_Cancelled(t *testing.T) {
	table := runnerFixtureTable()
	spec := runnerFixtureSpec(t)
	logger, _ := testutil.NewCaptureLogger(t)
	store := cyclestore.New(table, nil, 0.01, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(store, 2, logger).Run(ctx, table, spec)
	assert.ErrorIs(t, err, context.Canceled)
}
