package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"learnspeed/domain/learning"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names
const (
	SheetSummary     = "Summary"
	SheetSlopes      = "Slopes"
	SheetComparisons = "Comparisons"
)

// FormatFloat renders a value the way the summary CSV stores it: shortest
// round-trip digits, always with a decimal point
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// SummaryHeader is the header row of the summary CSV
func SummaryHeader(groupColumn string) []string {
	header := []string{groupColumn}
	for _, sub := range learning.Subjects() {
		header = append(header, string(sub))
	}
	return header
}

// WriteSummaryCSV writes one row per group, groups in sorted order, with one
// mean learning rate column per subject
func WriteSummaryCSV(path, groupColumn string, summary learning.GroupSubjectSummary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(SummaryHeader(groupColumn)); err != nil {
		return err
	}
	for _, g := range summary.Groups.Labels() {
		row, _ := summary.Row(g)
		record := []string{string(g)}
		for _, v := range row {
			record = append(record, FormatFloat(v))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

// WriteWorkbook exports the analysis to an XLSX file with a Summary,
// Slopes and Comparisons sheet
func WriteWorkbook(path, groupColumn string, analysis *learning.Analysis, slopes []learning.SlopeRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	if err := writeRows(f, SheetSummary, summaryRows(groupColumn, analysis.Summary)); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetSlopes); err != nil {
		return err
	}
	if err := writeRows(f, SheetSlopes, slopeRows(groupColumn, slopes)); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetComparisons); err != nil {
		return err
	}
	if err := writeRows(f, SheetComparisons, comparisonRows(analysis)); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func summaryRows(groupColumn string, summary learning.GroupSubjectSummary) [][]interface{} {
	header := SummaryHeader(groupColumn)
	rows := [][]interface{}{toRow(header)}
	for _, g := range summary.Groups.Labels() {
		values, _ := summary.Row(g)
		row := []interface{}{string(g)}
		for _, v := range values {
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return rows
}

func slopeRows(groupColumn string, slopes []learning.SlopeRecord) [][]interface{} {
	rows := [][]interface{}{{"entity_id", groupColumn, "subject", "learning_rate"}}
	for _, s := range slopes {
		rows = append(rows, []interface{}{s.EntityID.String(), string(s.Group), string(s.Subject), s.LearningRate})
	}
	return rows
}

func comparisonRows(a *learning.Analysis) [][]interface{} {
	first, second := string(a.Groups.First), string(a.Groups.Second)
	rows := [][]interface{}{{
		"subject", "t_statistic", "degrees_of_freedom", "p_value", "significant", "faster", "tie",
		first + "_n", first + "_mean", first + "_std",
		second + "_n", second + "_mean", second + "_std",
	}}
	for _, c := range a.Comparisons {
		rows = append(rows, []interface{}{
			string(c.Subject), finite(c.TStatistic), c.DegreesOfFreedom, c.PValue, c.Significant, string(c.Faster), c.Tie,
			c.First.N, c.First.Mean, c.First.StdDev,
			c.Second.N, c.Second.Mean, c.Second.StdDev,
		})
	}
	return rows
}

// finite keeps infinite t statistics readable in a spreadsheet cell
func finite(v float64) interface{} {
	if math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return v
}

func toRow(cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
