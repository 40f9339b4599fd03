package excel

import (
	"context"
	"math"
	"strconv"
	"strings"

	"learnspeed/domain/core"
	"learnspeed/domain/learning"
	"learnspeed/ports"
)

// Schema names the input columns that carry the group label and the
// baseline score of each subject
type Schema struct {
	GroupColumn    string
	SubjectColumns [learning.SubjectCount]string
}

// DefaultSchema matches the StudentsPerformance table
func DefaultSchema() Schema {
	var s Schema
	s.GroupColumn = "gender"
	for _, sub := range learning.Subjects() {
		s.SubjectColumns[sub.Index()] = sub.DefaultColumn()
	}
	return s
}

// Columns returns the group column followed by the subject columns
func (s Schema) Columns() []string {
	return append([]string{s.GroupColumn}, s.SubjectColumns[:]...)
}

// LoadBaselines maps table rows to baseline records. Every missing column is
// reported in one schema error. Rows keep their file order and get an ID
// derived from their position.
func LoadBaselines(data *TableData, schema Schema) ([]learning.BaselineRecord, error) {
	var missing []string
	for _, col := range schema.Columns() {
		if !data.HasColumn(col) {
			missing = append(missing, strconv.Quote(col))
		}
	}
	if len(missing) > 0 {
		return nil, core.NewSchemaError("missing required columns: %s (have %s)",
			strings.Join(missing, ", "), strings.Join(data.Headers, ", "))
	}
	if len(data.Rows) == 0 {
		return nil, core.NewSchemaError("table has no data rows")
	}

	records := make([]learning.BaselineRecord, 0, len(data.Rows))
	for i, row := range data.Rows {
		line := i + 2 // header is line 1
		label := row[schema.GroupColumn]
		if label == "" {
			return nil, core.NewSchemaError("row %d: empty %q", line, schema.GroupColumn)
		}
		rec := learning.BaselineRecord{
			EntityID: core.NewEntityID(i),
			Ordinal:  i,
			Group:    learning.GroupLabel(label),
		}
		for si, col := range schema.SubjectColumns {
			v, err := parseScore(row[col])
			if err != nil {
				return nil, core.NewSchemaError("row %d: column %q: %q is not a number", line, col, row[col])
			}
			rec.Scores[si] = v
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseScore(cell string) (float64, error) {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}

// BaselineLoader implements ports.BaselineReader for CSV and XLSX files
type BaselineLoader struct {
	path   string
	schema Schema
}

// NewBaselineLoader creates a loader for a file with the given schema
func NewBaselineLoader(path string, schema Schema) *BaselineLoader {
	return &BaselineLoader{path: path, schema: schema}
}

// Load reads the file and validates it against the schema
func (l *BaselineLoader) Load(ctx context.Context) ([]learning.BaselineRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := NewDataReader(l.path).ReadData()
	if err != nil {
		return nil, err
	}
	return LoadBaselines(data, l.schema)
}

// Source returns the file path
func (l *BaselineLoader) Source() string {
	return l.path
}

var _ ports.BaselineReader = (*BaselineLoader)(nil)
