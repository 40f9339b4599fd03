package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"learnspeed/domain/learning"
	"learnspeed/domain/run"
	"learnspeed/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when LEARNSPEED_CONFIG is unset. A missing file is not an error.
const DefaultConfigPath = "learnspeed.yaml"

// Config represents the complete application configuration
type Config struct {
	Input      InputConfig      `yaml:"input" validate:"required"`
	OutputDir  string           `yaml:"output_dir" validate:"required"`
	Simulation SimulationConfig `yaml:"simulation" validate:"required"`
	Analysis   AnalysisConfig   `yaml:"analysis" validate:"required"`
	Seed       *int64           `yaml:"seed"`
	Workers    int              `yaml:"workers" validate:"gte=1"`
	LogLevel   string           `yaml:"log_level" validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
}

// InputConfig describes the baseline table
type InputConfig struct {
	File           string         `yaml:"file" validate:"required"`
	GroupColumn    string         `yaml:"group_column" validate:"required"`
	SubjectColumns SubjectColumns `yaml:"subject_columns" validate:"required"`
}

// SubjectColumns maps each subject to its input column header
type SubjectColumns struct {
	Math    string `yaml:"math" validate:"required"`
	Reading string `yaml:"reading" validate:"required"`
	Writing string `yaml:"writing" validate:"required"`
}

// Column returns the header for a subject
func (c SubjectColumns) Column(sub learning.Subject) string {
	switch sub {
	case learning.SubjectMath:
		return c.Math
	case learning.SubjectReading:
		return c.Reading
	case learning.SubjectWriting:
		return c.Writing
	}
	return ""
}

// SimulationConfig holds the attempt simulation settings
type SimulationConfig struct {
	Attempts    int     `yaml:"attempts" validate:"gte=1"`
	DriftRate   float64 `yaml:"drift_rate"`
	NoiseStdDev float64 `yaml:"noise_std_dev" validate:"gte=0"`
	ScoreCap    float64 `yaml:"score_cap" validate:"gt=0"`
}

// AnalysisConfig holds the group comparison settings
type AnalysisConfig struct {
	Alpha    float64 `yaml:"alpha" validate:"gt=0,lt=1"`
	TieBreak string  `yaml:"tie_break" validate:"oneof=first second"`
}

// Default returns the fixed settings of the original analysis
func Default() *Config {
	return &Config{
		Input: InputConfig{
			File:        "StudentsPerformance.csv",
			GroupColumn: "gender",
			SubjectColumns: SubjectColumns{
				Math:    learning.SubjectMath.DefaultColumn(),
				Reading: learning.SubjectReading.DefaultColumn(),
				Writing: learning.SubjectWriting.DefaultColumn(),
			},
		},
		OutputDir: ".",
		Simulation: SimulationConfig{
			Attempts:    5,
			DriftRate:   2.0,
			NoiseStdDev: 1.0,
			ScoreCap:    100,
		},
		Analysis: AnalysisConfig{
			Alpha:    0.05,
			TieBreak: string(learning.TieBreakFirst),
		},
		Workers:  runtime.GOMAXPROCS(0),
		LogLevel: "INFO",
	}
}

// Load reads configuration from .env, an optional YAML file and environment
// variables, in that order, and validates it
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	path := getEnvOrDefault("LEARNSPEED_CONFIG", DefaultConfigPath)
	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parse %s: %w", path, err))
	}
	return nil
}

func applyEnv(cfg *Config) error {
	envOverride(&cfg.Input.File, "INPUT_FILE")
	envOverride(&cfg.OutputDir, "OUTPUT_DIR")
	envOverride(&cfg.Input.GroupColumn, "GROUP_COLUMN")
	envOverride(&cfg.Analysis.TieBreak, "TIE_BREAK")
	envOverride(&cfg.LogLevel, "LOG_LEVEL")

	for _, err := range []error{
		envOverrideInt(&cfg.Simulation.Attempts, "ATTEMPTS"),
		envOverrideFloat(&cfg.Simulation.DriftRate, "DRIFT_RATE"),
		envOverrideFloat(&cfg.Simulation.NoiseStdDev, "NOISE_STDDEV"),
		envOverrideFloat(&cfg.Simulation.ScoreCap, "SCORE_CAP"),
		envOverrideFloat(&cfg.Analysis.Alpha, "ALPHA"),
		envOverrideInt(&cfg.Workers, "WORKERS"),
	} {
		if err != nil {
			return err
		}
	}

	if value := os.Getenv("SEED"); value != "" {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("SEED must be an integer, got %q", value))
		}
		cfg.Seed = &seed
	}
	return nil
}

// Validate checks struct constraints and normalizes enum fields
func (c *Config) Validate() error {
	c.LogLevel = strings.ToUpper(strings.TrimSpace(c.LogLevel))
	tb, err := learning.ParseTieBreak(c.Analysis.TieBreak)
	if err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	c.Analysis.TieBreak = string(tb)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.ConfigInvalid(strings.Join(msgs, "; "))
		}
		return errors.ConfigInvalid(err.Error())
	}
	return nil
}

// ResolveSeed returns the configured seed, or a clock-derived one that the
// caller should record so the run can be replayed
func (c *Config) ResolveSeed(now func() time.Time) (seed int64, generated bool) {
	if c.Seed != nil {
		return *c.Seed, false
	}
	return now().UnixNano(), true
}

// TieBreakPolicy returns the parsed tie-break policy
func (c *Config) TieBreakPolicy() learning.TieBreak {
	tb, err := learning.ParseTieBreak(c.Analysis.TieBreak)
	if err != nil {
		return learning.TieBreakFirst
	}
	return tb
}

// Parameters returns the result-affecting settings recorded in the manifest
func (c *Config) Parameters() run.Parameters {
	return run.Parameters{
		Attempts:    c.Simulation.Attempts,
		DriftRate:   c.Simulation.DriftRate,
		NoiseStdDev: c.Simulation.NoiseStdDev,
		ScoreCap:    c.Simulation.ScoreCap,
		Alpha:       c.Analysis.Alpha,
		TieBreak:    string(c.TieBreakPolicy()),
		GroupColumn: c.Input.GroupColumn,
	}
}

// ApplyParameters overwrites the result-affecting settings with p, as
// recorded in a manifest
func (c *Config) ApplyParameters(p run.Parameters) {
	c.Simulation.Attempts = p.Attempts
	c.Simulation.DriftRate = p.DriftRate
	c.Simulation.NoiseStdDev = p.NoiseStdDev
	c.Simulation.ScoreCap = p.ScoreCap
	c.Analysis.Alpha = p.Alpha
	c.Analysis.TieBreak = p.TieBreak
	c.Input.GroupColumn = p.GroupColumn
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envOverride(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func envOverrideInt(target *int, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	*target = n
	return nil
}

func envOverrideFloat(target *float64, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("%s must be a number, got %q", key, value))
	}
	*target = f
	return nil
}
