package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"learnspeed/domain/core"
	"learnspeed/domain/learning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const studentsCSV = `gender,race/ethnicity,math score,reading score,writing score
female,group B,72,72,74
male,group A,47,57,44
 female ,group C, 90 ,95,93

male,group C,76,78,75
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDataReader_CSV(t *testing.T) {
	data, err := NewDataReader(writeFile(t, "students.csv", studentsCSV)).ReadData()
	require.NoError(t, err)

	assert.Equal(t, []string{"gender", "race/ethnicity", "math score", "reading score", "writing score"}, data.Headers)
	require.Len(t, data.Rows, 4, "blank lines are skipped")
	assert.Equal(t, "female", data.Rows[2]["gender"])
	assert.Equal(t, "90", data.Rows[2]["math score"])
	assert.True(t, data.HasColumn("writing score"))
	assert.False(t, data.HasColumn("lunch"))
}

func TestDataReader_MissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "absent.csv")).ReadData()
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDataReader_HeaderOnly(t *testing.T) {
	_, err := NewDataReader(writeFile(t, "empty.csv", "gender,math score\n")).ReadData()
	assert.ErrorIs(t, err, core.ErrInputSchema)
}

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	require.NoError(t, writeRows(f, sheet, rows))
	path := filepath.Join(t.TempDir(), "students.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestDataReader_XLSXFallsBackToFirstSheet(t *testing.T) {
	path := writeWorkbook(t, "Students", [][]interface{}{
		{"gender", "math score", "reading score", "writing score"},
		{"female", 72, 72, 74},
		{"male", 47, 57, 44},
	})

	data, err := NewDataReader(path).ReadData()
	require.NoError(t, err)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "47", data.Rows[1]["math score"])
}

func TestLoadBaselines(t *testing.T) {
	data, err := NewDataReader(writeFile(t, "students.csv", studentsCSV)).ReadData()
	require.NoError(t, err)

	records, err := LoadBaselines(data, DefaultSchema())
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, learning.GroupLabel("female"), records[0].Group)
	assert.Equal(t, learning.Scores{72, 72, 74}, records[0].Scores)
	assert.Equal(t, learning.Scores{90, 95, 93}, records[2].Scores)
	for i, r := range records {
		assert.Equal(t, i, r.Ordinal)
		assert.Equal(t, core.NewEntityID(i), r.EntityID)
	}
}

func TestLoadBaselines_ListsEveryMissingColumn(t *testing.T) {
	data := &TableData{
		Headers: []string{"gender", "math score"},
		Rows:    []RawRowData{{"gender": "female", "math score": "70"}},
	}

	_, err := LoadBaselines(data, DefaultSchema())
	require.Error(t, err)
	assert.True(t, core.IsSchemaError(err))
	assert.Contains(t, err.Error(), `"reading score"`)
	assert.Contains(t, err.Error(), `"writing score"`)
	assert.NotContains(t, err.Error(), `"math score", `)
}

func TestLoadBaselines_RejectsBadCells(t *testing.T) {
	headers := []string{"gender", "math score", "reading score", "writing score"}
	tests := []struct {
		name string
		row  RawRowData
		want string
	}{
		{"non-numeric", RawRowData{"gender": "male", "math score": "abc", "reading score": "1", "writing score": "1"}, `"math score"`},
		{"empty score", RawRowData{"gender": "male", "math score": "1", "reading score": "", "writing score": "1"}, `"reading score"`},
		{"nan score", RawRowData{"gender": "male", "math score": "1", "reading score": "1", "writing score": "NaN"}, `"writing score"`},
		{"empty label", RawRowData{"gender": "", "math score": "1", "reading score": "1", "writing score": "1"}, `"gender"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBaselines(&TableData{Headers: headers, Rows: []RawRowData{tt.row}}, DefaultSchema())
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInputSchema)
			assert.Contains(t, err.Error(), "row 2")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBaselineLoader_ImplementsReader(t *testing.T) {
	path := writeFile(t, "students.csv", studentsCSV)
	loader := NewBaselineLoader(path, DefaultSchema())

	records, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 4)
	assert.Equal(t, path, loader.Source())

	schema := DefaultSchema()
	schema.GroupColumn = "lunch"
	_, err = NewBaselineLoader(path, schema).Load(context.Background())
	assert.ErrorIs(t, err, core.ErrInputSchema)
}

func sampleAnalysis() (*learning.Analysis, []learning.SlopeRecord) {
	pair := learning.GroupPair{First: "female", Second: "male"}
	summary := learning.GroupSubjectSummary{
		Groups: pair,
		Means:  [2][learning.SubjectCount]float64{{2, 2.5, 1.75}, {2.25, 2, 2}},
	}
	analysis := &learning.Analysis{
		Groups:  pair,
		Summary: summary,
		Comparisons: []learning.ComparisonResult{
			{Subject: learning.SubjectMath, TStatistic: -1.2, DegreesOfFreedom: 8, PValue: 0.26, Faster: "male",
				First: learning.GroupStats{Group: "female", N: 5, Mean: 2}, Second: learning.GroupStats{Group: "male", N: 5, Mean: 2.25}},
		},
		Alpha:       0.05,
		EntityCount: 10,
	}
	slopes := []learning.SlopeRecord{
		{EntityID: core.NewEntityID(0), Group: "female", Subject: learning.SubjectMath, LearningRate: 2},
	}
	return analysis, slopes
}

func TestWriteSummaryCSV(t *testing.T) {
	analysis, _ := sampleAnalysis()
	path := filepath.Join(t.TempDir(), "learning_speed_analysis.csv")

	require.NoError(t, WriteSummaryCSV(path, "gender", analysis.Summary))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"gender,math_score,reading_score,writing_score\n"+
			"female,2.0,2.5,1.75\n"+
			"male,2.25,2.0,2.0\n",
		string(content))
}

func TestWriteWorkbook(t *testing.T) {
	analysis, slopes := sampleAnalysis()
	path := filepath.Join(t.TempDir(), "learning_speed_analysis.xlsx")

	require.NoError(t, WriteWorkbook(path, "gender", analysis, slopes))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetSlopes, SheetComparisons}, f.GetSheetList())

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, []string{"gender", "math_score", "reading_score", "writing_score"}, summary[0])
	assert.Equal(t, "female", summary[1][0])

	comparisons, err := f.GetRows(SheetComparisons)
	require.NoError(t, err)
	require.Len(t, comparisons, 2)
	assert.Equal(t, "female_mean", comparisons[0][8])
	assert.Equal(t, "math_score", comparisons[1][0])

	slopeSheet, err := f.GetRows(SheetSlopes)
	require.NoError(t, err)
	require.Len(t, slopeSheet, 2)
	assert.Equal(t, core.NewEntityID(0).String(), slopeSheet[1][0])
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "2.0", FormatFloat(2))
	assert.Equal(t, "-0.125", FormatFloat(-0.125))
	assert.Equal(t, "1.9999999999999996", FormatFloat(1.9999999999999996))
}
