package report

import (
	"fmt"
	"path/filepath"

	"learnspeed/domain/learning"
)

// Output names, keyed into the map returned by Reporter.Write
const (
	OutputTrends       = "trends_dashboard"
	OutputConclusions  = "conclusions_dashboard"
	OutputSummaryCSV   = "summary_csv"
	OutputWorkbook     = "workbook"
	OutputFindingsMD   = "findings_markdown"
	OutputFindingsHTML = "findings_html"
	OutputManifest     = "manifest"
)

// Output file names
const (
	FileTrends       = "learning_trends_dashboard.png"
	FileConclusions  = "detailed_conclusions_dashboard.png"
	FileSummaryCSV   = "learning_speed_analysis.csv"
	FileWorkbook     = "learning_speed_analysis.xlsx"
	FileFindingsMD   = "findings.md"
	FileFindingsHTML = "findings.html"
	FileManifest     = "run_manifest.json"
)

var consoleOrder = []struct {
	key    string
	prefix string
}{
	{OutputTrends, "Dashboard 1 saved"},
	{OutputConclusions, "Dashboard 2 saved"},
	{OutputSummaryCSV, "Data exported"},
	{OutputWorkbook, "Workbook exported"},
	{OutputFindingsMD, "Findings saved"},
	{OutputFindingsHTML, "Findings saved"},
	{OutputManifest, "Manifest saved"},
}

// ConsoleLines names the overall winner and confirms every written file
func ConsoleLines(a *learning.Analysis, outputs map[string]string) []string {
	lines := []string{fmt.Sprintf("Overall Winner: %s students", a.Overall.Winner.Title())}
	for _, o := range consoleOrder {
		if path, ok := outputs[o.key]; ok {
			lines = append(lines, fmt.Sprintf("%s: %s", o.prefix, filepath.Base(path)))
		}
	}
	return lines
}
