// Package cohortgen creates synthetic baseline tables shaped like the
// StudentsPerformance dataset: demographic columns, a group column and three
// integer subject scores.
package cohortgen

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"strconv"

	"learnspeed/domain/core"
	"learnspeed/domain/learning"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/stat/distuv"
)

// Background columns carried for realism. The analysis ignores them.
var background = []struct {
	header  string
	choices []string
}{
	{"race/ethnicity", []string{"group A", "group B", "group C", "group D", "group E"}},
	{"parental level of education", []string{"some high school", "high school", "some college", "associate's degree", "bachelor's degree", "master's degree"}},
	{"lunch", []string{"standard", "free/reduced"}},
	{"test preparation course", []string{"none", "completed"}},
}

// Table is a generated baseline table
type Table struct {
	Headers []string
	Rows    [][]string // formatted cells

	// Numeric view for tests
	Groups []learning.GroupLabel
	Scores []learning.Scores
}

// Config controls the generated cohort
type Config struct {
	Rows           int
	Seed           int64
	GroupColumn    string
	SubjectColumns [learning.SubjectCount]string
	GroupLabels    []string
	MeanScore      float64
	ScoreStdDev    float64
	// GroupShift is added to the mean score of each successive group label
	GroupShift float64
}

// DefaultConfig matches the size and columns of StudentsPerformance.csv
func DefaultConfig() Config {
	cfg := Config{
		Rows:        1000,
		Seed:        42,
		GroupColumn: "gender",
		GroupLabels: []string{"female", "male"},
		MeanScore:   67,
		ScoreStdDev: 14,
		GroupShift:  0,
	}
	for _, sub := range learning.Subjects() {
		cfg.SubjectColumns[sub.Index()] = sub.DefaultColumn()
	}
	return cfg
}

func (c Config) validate() error {
	switch {
	case c.Rows <= 0:
		return core.NewValidationError("rows", "must be > 0")
	case len(c.GroupLabels) == 0:
		return core.NewValidationError("group_labels", "at least one label is required")
	case c.ScoreStdDev < 0:
		return core.NewValidationError("score_std_dev", "must be >= 0")
	case c.GroupColumn == "":
		return core.NewValidationError("group_column", "cannot be empty")
	}
	for _, col := range c.SubjectColumns {
		if col == "" {
			return core.NewValidationError("subject_columns", "cannot be empty")
		}
	}
	return nil
}

// Generate draws a table. The same Config always yields the same table.
// Scores are rounded to integers and clipped to [0, 100].
func Generate(cfg Config) (*Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	src := rand.NewPCG(uint64(cfg.Seed), 0x636f686f7274)
	rng := rand.New(src)
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	headers := make([]string, 0, len(background)+1+learning.SubjectCount)
	headers = append(headers, cfg.GroupColumn)
	for _, b := range background {
		headers = append(headers, b.header)
	}
	headers = append(headers, cfg.SubjectColumns[:]...)

	t := &Table{
		Headers: headers,
		Rows:    make([][]string, cfg.Rows),
		Groups:  make([]learning.GroupLabel, cfg.Rows),
		Scores:  make([]learning.Scores, cfg.Rows),
	}

	for i := 0; i < cfg.Rows; i++ {
		gi := rng.IntN(len(cfg.GroupLabels))
		mean := cfg.MeanScore + float64(gi)*cfg.GroupShift

		row := make([]string, 0, len(headers))
		row = append(row, cfg.GroupLabels[gi])
		for _, b := range background {
			row = append(row, b.choices[rng.IntN(len(b.choices))])
		}

		var scores learning.Scores
		for si := range scores {
			v := mean + cfg.ScoreStdDev*noise.Rand()
			scores[si] = math.Max(0, math.Min(100, math.Round(v)))
			row = append(row, strconv.Itoa(int(scores[si])))
		}

		t.Rows[i] = row
		t.Groups[i] = learning.GroupLabel(cfg.GroupLabels[gi])
		t.Scores[i] = scores
	}
	return t, nil
}

// WriteCSV stores the table as CSV
func WriteCSV(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Headers); err != nil {
		return err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return err
	}
	return w.Error()
}

// WriteXLSX stores the table on Sheet1 of a new workbook. Score cells are
// written as numbers.
func WriteXLSX(path string, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}

	for c, h := range t.Headers {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	firstScore := len(t.Headers) - learning.SubjectCount
	for r, row := range t.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			var value interface{} = v
			if c >= firstScore {
				value = int(t.Scores[r][c-firstScore])
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
