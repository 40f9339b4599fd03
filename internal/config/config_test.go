package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"learnspeed/domain/learning"
	"learnspeed/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("LEARNSPEED_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	for _, key := range []string{"INPUT_FILE", "OUTPUT_DIR", "GROUP_COLUMN", "ATTEMPTS", "DRIFT_RATE",
		"NOISE_STDDEV", "SCORE_CAP", "ALPHA", "SEED", "TIE_BREAK", "WORKERS", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "StudentsPerformance.csv", cfg.Input.File)
	assert.Equal(t, "gender", cfg.Input.GroupColumn)
	assert.Equal(t, "math score", cfg.Input.SubjectColumns.Column(learning.SubjectMath))
	assert.Equal(t, "reading score", cfg.Input.SubjectColumns.Column(learning.SubjectReading))
	assert.Equal(t, "writing score", cfg.Input.SubjectColumns.Column(learning.SubjectWriting))
	assert.Equal(t, 5, cfg.Simulation.Attempts)
	assert.Equal(t, 2.0, cfg.Simulation.DriftRate)
	assert.Equal(t, 1.0, cfg.Simulation.NoiseStdDev)
	assert.Equal(t, 100.0, cfg.Simulation.ScoreCap)
	assert.Equal(t, 0.05, cfg.Analysis.Alpha)
	assert.Equal(t, learning.TieBreakFirst, cfg.TieBreakPolicy())
	assert.Nil(t, cfg.Seed)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "learnspeed.yaml")
	yamlDoc := `
input:
  file: cohort.xlsx
  group_column: gender
  subject_columns:
    math: math score
    reading: reading score
    writing: writing score
output_dir: out
simulation:
  attempts: 8
  drift_rate: 1.5
  noise_std_dev: 0.5
  score_cap: 100
analysis:
  alpha: 0.01
  tie_break: second
seed: 7
workers: 2
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	t.Setenv("LEARNSPEED_CONFIG", path)
	t.Setenv("ATTEMPTS", "10")
	t.Setenv("SEED", "99")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cohort.xlsx", cfg.Input.File)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 10, cfg.Simulation.Attempts)
	assert.Equal(t, 1.5, cfg.Simulation.DriftRate)
	assert.Equal(t, 0.01, cfg.Analysis.Alpha)
	assert.Equal(t, learning.TieBreakSecond, cfg.TieBreakPolicy())
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(99), *cfg.Seed)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero attempts", "ATTEMPTS", "0"},
		{"non-numeric attempts", "ATTEMPTS", "five"},
		{"alpha out of range", "ALPHA", "1.5"},
		{"negative noise", "NOISE_STDDEV", "-1"},
		{"unknown tie break", "TIE_BREAK", "random"},
		{"bad seed", "SEED", "abc"},
		{"unknown log level", "LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
			assert.Equal(t, 2, errors.ExitCode(err))
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation: [unclosed"), 0o644))
	t.Setenv("LEARNSPEED_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestResolveSeed(t *testing.T) {
	cfg := Default()
	clock := func() time.Time { return time.Unix(0, 1234) }

	seed, generated := cfg.ResolveSeed(clock)
	assert.True(t, generated)
	assert.Equal(t, int64(1234), seed)

	fixed := int64(42)
	cfg.Seed = &fixed
	seed, generated = cfg.ResolveSeed(clock)
	assert.False(t, generated)
	assert.Equal(t, int64(42), seed)
}

func TestParameters(t *testing.T) {
	cfg := Default()
	params := cfg.Parameters()
	assert.Equal(t, 5, params.Attempts)
	assert.Equal(t, "first", params.TieBreak)
	assert.Equal(t, "gender", params.GroupColumn)
}
