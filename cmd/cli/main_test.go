package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"learnspeed/internal/errors"
	"learnspeed/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LEARNSPEED_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	for _, key := range []string{"INPUT_FILE", "OUTPUT_DIR", "GROUP_COLUMN", "ATTEMPTS", "DRIFT_RATE",
		"NOISE_STDDEV", "SCORE_CAP", "ALPHA", "SEED", "TIE_BREAK", "WORKERS"} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "ERROR")
}

func TestGenerateThenAnalyze(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "cohort.xlsx")

	var out bytes.Buffer
	gen := newGenerateCmd()
	gen.SetOut(&out)
	gen.SetArgs([]string{"--out", input, "--rows", "60", "--seed", "3"})
	require.NoError(t, gen.Execute())
	assert.Contains(t, out.String(), "Total Columns: 8 | Total Rows: 60")

	out.Reset()
	results := filepath.Join(dir, "results")
	analyze := newAnalyzeCmd()
	analyze.SetOut(&out)
	analyze.SetArgs([]string{input, "--out", results, "--seed", "42", "--workers", "2"})
	require.NoError(t, analyze.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "Overall Winner: ")
	assert.Contains(t, out.String(), "Data exported: "+report.FileSummaryCSV)
	assert.Contains(t, out.String(), "Manifest saved: "+report.FileManifest)
	assert.NotContains(t, out.String(), "Seed:")
	_, err := os.Stat(filepath.Join(results, report.FileTrends))
	assert.NoError(t, err)

	out.Reset()
	replay := newReplayCmd()
	replay.SetOut(&out)
	replay.SetArgs([]string{filepath.Join(results, report.FileManifest), "--out", filepath.Join(dir, "replay")})
	require.NoError(t, replay.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "reproduced output")
}

func TestAnalyze_InvalidFlagIsConfigError(t *testing.T) {
	isolateEnv(t)
	cmd := newAnalyzeCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"missing.csv", "--tie-break", "sideways"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	assert.Equal(t, 2, errors.ExitCode(err))
}

func TestAnalyze_MissingInputExitsWithInputCode(t *testing.T) {
	isolateEnv(t)
	cmd := newAnalyzeCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.csv"), "--out", t.TempDir(), "--seed", "1"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `stage "load" failed`)
	assert.Equal(t, 2, errors.ExitCode(err))
}

func TestGenerate_RejectsUnknownFormat(t *testing.T) {
	cmd := newGenerateCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--out", filepath.Join(t.TempDir(), "cohort.txt"), "--format", "parquet"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
