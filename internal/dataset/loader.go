package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "gaitkit/internal/errors"
	"gaitkit/pkg/contracts/domain"
)

// Loader reads observation tables from disk. Missing required structural
// columns abort the load with a schema error; unparseable feature cells
// become NaN with a warning count, because a bad sample is a data-quality
// problem for that cycle, not for the whole file.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a table loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadCSV reads a long-format observation table from a CSV file.
func (l *Loader) LoadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.IO(fmt.Sprintf("open table %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.IO(fmt.Sprintf("read header of %s", path), err)
	}
	// Header slice must outlive ReuseRecord.
	header = append([]string(nil), header...)

	layout, err := resolveLayout(header)
	if err != nil {
		return nil, err
	}

	var rows []domain.Row
	badCells := 0
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.IO(fmt.Sprintf("read %s line %d", path, line+1), err)
		}
		line++

		row, bad, err := layout.parseRow(record, line)
		if err != nil {
			return nil, err
		}
		badCells += bad
		rows = append(rows, row)
	}

	return l.finish(path, layout, rows, badCells), nil
}

// LoadXLSX reads a long-format observation table from the first sheet of an
// XLSX workbook.
func (l *Loader) LoadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.IO(fmt.Sprintf("open workbook %s", path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.Schemaf("workbook %s has no sheets", path)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.IO(fmt.Sprintf("read sheet %s of %s", sheets[0], path), err)
	}
	if len(records) == 0 {
		return nil, apperrors.Schemaf("workbook %s sheet %s is empty", path, sheets[0])
	}

	layout, err := resolveLayout(records[0])
	if err != nil {
		return nil, err
	}

	var rows []domain.Row
	badCells := 0
	for i, record := range records[1:] {
		// excelize trims trailing empty cells; pad back to header width.
		if len(record) < len(records[0]) {
			padded := make([]string, len(records[0]))
			copy(padded, record)
			record = padded
		}
		row, bad, err := layout.parseRow(record, i+2)
		if err != nil {
			return nil, err
		}
		badCells += bad
		rows = append(rows, row)
	}

	return l.finish(path, layout, rows, badCells), nil
}

func (l *Loader) finish(path string, layout *columnLayout, rows []domain.Row, badCells int) *Table {
	if badCells > 0 {
		l.logger.Warn("unparseable feature cells loaded as NaN",
			slog.String("path", path),
			slog.Int("cell_count", badCells))
	}
	l.logger.Info("observation table loaded",
		slog.String("path", path),
		slog.Int("rows", len(rows)),
		slog.Int("features", len(layout.features)))
	return NewTable(layout.features, rows)
}

// columnLayout maps header positions for structural and feature columns.
type columnLayout struct {
	structural map[string]int
	features   []string
	featureIdx []int
}

// resolveLayout locates every required structural column and treats all
// remaining columns as features. A missing structural column is fatal.
func resolveLayout(header []string) (*columnLayout, error) {
	layout := &columnLayout{structural: make(map[string]int)}

	required := make(map[string]struct{}, len(domain.RequiredColumns))
	for _, c := range domain.RequiredColumns {
		required[c] = struct{}{}
	}

	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if _, ok := required[name]; ok {
			layout.structural[name] = i
			continue
		}
		layout.features = append(layout.features, name)
		layout.featureIdx = append(layout.featureIdx, i)
	}

	for _, c := range domain.RequiredColumns {
		if _, ok := layout.structural[c]; !ok {
			return nil, apperrors.Schemaf("missing required column %q", c)
		}
	}
	return layout, nil
}

func (cl *columnLayout) parseRow(record []string, line int) (domain.Row, int, error) {
	get := func(col string) string {
		idx := cl.structural[col]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	step, err := strconv.Atoi(get(domain.ColumnStep))
	if err != nil {
		return domain.Row{}, 0, apperrors.Schemaf("line %d: step %q is not an integer", line, get(domain.ColumnStep))
	}
	phase, err := strconv.ParseFloat(get(domain.ColumnPhase), 64)
	if err != nil {
		return domain.Row{}, 0, apperrors.Schemaf("line %d: phase %q is not a number", line, get(domain.ColumnPhase))
	}

	features := make([]float64, len(cl.featureIdx))
	bad := 0
	for i, idx := range cl.featureIdx {
		cell := ""
		if idx < len(record) {
			cell = strings.TrimSpace(record[idx])
		}
		if cell == "" {
			features[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			features[i] = math.NaN()
			bad++
			continue
		}
		features[i] = v
	}

	return domain.Row{
		Subject:  get(domain.ColumnSubject),
		Task:     get(domain.ColumnTask),
		TaskID:   get(domain.ColumnTaskID),
		TaskInfo: get(domain.ColumnTaskInfo),
		Step:     step,
		Phase:    phase,
		Features: features,
	}, bad, nil
}
