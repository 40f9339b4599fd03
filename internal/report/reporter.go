package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"learnspeed/adapters/excel"
	"learnspeed/internal"
	"learnspeed/internal/errors"
	"learnspeed/ports"
)

// Reporter writes the summary table, dashboards, findings and workbook
// into one output directory
type Reporter struct {
	outDir string
	logger *internal.Logger
}

// NewReporter creates a reporter writing into outDir
func NewReporter(outDir string, logger *internal.Logger) *Reporter {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Reporter{outDir: outDir, logger: logger}
}

// Path returns where a named output file is written
func (r *Reporter) Path(file string) string {
	return filepath.Join(r.outDir, file)
}

// Write renders every output. It stops at the first failure and returns the
// paths written so far alongside the error.
func (r *Reporter) Write(ctx context.Context, in ports.ReportInput) (map[string]string, error) {
	if in.Analysis == nil {
		return nil, errors.InternalError("report requires an analysis")
	}
	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return nil, errors.ReportError(r.outDir, err)
	}

	method := Methodology{
		Attempts:    in.Attempts,
		EntityCount: in.Analysis.EntityCount,
		Alpha:       in.Analysis.Alpha,
		GroupColumn: in.GroupColumn,
		Seed:        in.Seed,
	}
	findingsMD := FindingsMarkdown(in.Analysis, method) + ProfileMarkdown(in.Profiles)

	steps := []struct {
		key   string
		file  string
		write func(path string) error
	}{
		{OutputSummaryCSV, FileSummaryCSV, func(path string) error {
			return excel.WriteSummaryCSV(path, in.GroupColumn, in.Analysis.Summary)
		}},
		{OutputTrends, FileTrends, func(path string) error {
			var buf bytes.Buffer
			if err := RenderTrends(&buf, in.Analysis, in.Observations, in.Attempts); err != nil {
				return err
			}
			return os.WriteFile(path, buf.Bytes(), 0o644)
		}},
		{OutputConclusions, FileConclusions, func(path string) error {
			var buf bytes.Buffer
			if err := RenderConclusions(&buf, in.Analysis, FindingsLines(in.Analysis, method)); err != nil {
				return err
			}
			return os.WriteFile(path, buf.Bytes(), 0o644)
		}},
		{OutputFindingsMD, FileFindingsMD, func(path string) error {
			return os.WriteFile(path, []byte(findingsMD), 0o644)
		}},
		{OutputFindingsHTML, FileFindingsHTML, func(path string) error {
			return os.WriteFile(path, FindingsHTML(findingsMD), 0o644)
		}},
		{OutputWorkbook, FileWorkbook, func(path string) error {
			return excel.WriteWorkbook(path, in.GroupColumn, in.Analysis, in.Slopes)
		}},
	}

	outputs := make(map[string]string, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}
		path := r.Path(step.file)
		if err := step.write(path); err != nil {
			r.logger.Error("[Reporter] %s failed: %v", step.file, err)
			return outputs, errors.ReportError(step.file, err)
		}
		r.logger.Debug("[Reporter] wrote %s", path)
		outputs[step.key] = path
	}
	r.logger.Info("[Reporter] %d outputs written to %s", len(outputs), r.outDir)
	return outputs, nil
}

var _ ports.Reporter = (*Reporter)(nil)
