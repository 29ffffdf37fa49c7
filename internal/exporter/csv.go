// Package exporter renders validation reports into the CSV documents the
// external reporting and plotting collaborators consume.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gaitkit/pkg/contracts/domain"
)

// CSVWriter writes report documents under a base directory.
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer rooted at dir.
func NewCSVWriter(dir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{dir: dir, logger: logger}
}

// WriteSummary writes the per-task pass/fail counts.
func (w *CSVWriter) WriteSummary(filename string, report *domain.DatasetReport) error {
	records := make([][]string, 0, len(report.Tasks))
	for _, task := range report.Tasks {
		records = append(records, []string{
			task.Task,
			strconv.Itoa(task.TotalCycles),
			strconv.Itoa(task.ValidCycles),
			strconv.Itoa(len(task.SkippedSteps)),
			strconv.FormatFloat(task.Compliance(), 'f', 4, 64),
		})
	}

	return w.write(filename,
		[]string{"task", "total_cycles", "valid_cycles", "skipped_steps", "compliance"},
		records)
}

// WriteFailures writes every validation failure in report order.
func (w *CSVWriter) WriteFailures(filename string, report *domain.DatasetReport) error {
	var records [][]string
	for _, task := range report.Tasks {
		for _, f := range task.Failures {
			records = append(records, []string{
				f.Key.Subject,
				f.Key.Task,
				strconv.Itoa(f.Key.Step),
				f.Variable,
				strconv.FormatFloat(f.PhasePercent, 'f', -1, 64),
				strconv.FormatFloat(f.Observed, 'g', -1, 64),
				strconv.FormatFloat(f.ExpectedMin, 'g', -1, 64),
				strconv.FormatFloat(f.ExpectedMax, 'g', -1, 64),
			})
		}
	}

	return w.write(filename,
		[]string{"subject", "task", "step", "variable", "phase", "observed", "expected_min", "expected_max"},
		records)
}

// WriteSkips writes the structurally excluded steps with their reasons.
func (w *CSVWriter) WriteSkips(filename string, report *domain.DatasetReport) error {
	var records [][]string
	for _, task := range report.Tasks {
		for _, s := range task.SkippedSteps {
			records = append(records, []string{
				s.Key.Subject,
				s.Key.Task,
				strconv.Itoa(s.Key.Step),
				s.Reason,
			})
		}
	}

	return w.write(filename, []string{"subject", "task", "step", "reason"}, records)
}

func (w *CSVWriter) write(filename string, header []string, records [][]string) error {
	fullPath := filepath.Join(w.dir, filename)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	w.logger.Info("report exported",
		slog.String("path", fullPath),
		slog.Int("records", len(records)))
	return nil
}
