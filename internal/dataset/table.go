// Package dataset loads phase-normalized locomotion observation tables from
// CSV and XLSX files into an immutable in-memory form.
package dataset

import (
	"sort"
	"strings"

	"gaitkit/pkg/contracts/domain"
)

// Table is an immutable long-format observation table. It is loaded once per
// session and only ever read afterwards; cycle extraction works on copies.
type Table struct {
	features []string
	rows     []domain.Row
}

// NewTable constructs a table from pre-parsed rows. Intended for tests and
// for conversion scripts that already hold rows in memory; file loading goes
// through LoadCSV / LoadXLSX.
func NewTable(features []string, rows []domain.Row) *Table {
	return &Table{features: features, rows: rows}
}

// Features returns the feature column names in header order.
func (t *Table) Features() []string {
	out := make([]string, len(t.features))
	copy(out, t.features)
	return out
}

// FeatureIndex returns the position of a feature column, or false when the
// table does not carry it.
func (t *Table) FeatureIndex(name string) (int, bool) {
	for i, f := range t.features {
		if f == name {
			return i, true
		}
	}
	return 0, false
}

// Len returns the row count.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns the backing rows. Callers must not mutate them.
func (t *Table) Rows() []domain.Row {
	return t.rows
}

// SubjectTask identifies one independently processable data unit.
type SubjectTask struct {
	Subject string
	Task    string
}

// SubjectTasks returns the distinct (subject, task) pairs in the table,
// sorted by task then subject so iteration order is deterministic.
func (t *Table) SubjectTasks() []SubjectTask {
	seen := make(map[SubjectTask]struct{})
	var units []SubjectTask
	for i := range t.rows {
		st := SubjectTask{Subject: t.rows[i].Subject, Task: t.rows[i].Task}
		if _, ok := seen[st]; !ok {
			seen[st] = struct{}{}
			units = append(units, st)
		}
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i].Task != units[j].Task {
			return units[i].Task < units[j].Task
		}
		return units[i].Subject < units[j].Subject
	})
	return units
}

// Tasks returns the distinct task names in the table, sorted.
func (t *Table) Tasks() []string {
	seen := make(map[string]struct{})
	var tasks []string
	for i := range t.rows {
		if _, ok := seen[t.rows[i].Task]; !ok {
			seen[t.rows[i].Task] = struct{}{}
			tasks = append(tasks, t.rows[i].Task)
		}
	}
	sort.Strings(tasks)
	return tasks
}

// ParseTaskInfo decodes a "key:value,key:value" task_info string into a map.
// Malformed segments are dropped; task_info is informational metadata and
// never gates processing.
func ParseTaskInfo(info string) map[string]string {
	out := make(map[string]string)
	for _, segment := range strings.Split(info, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, value, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}
