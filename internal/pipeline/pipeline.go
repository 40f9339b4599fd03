// Package pipeline runs the learning-speed analysis stage by stage:
// load, simulate, estimate, compare, report.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"learnspeed/adapters/excel"
	"learnspeed/adapters/rng"
	"learnspeed/domain/core"
	"learnspeed/domain/learning"
	"learnspeed/domain/run"
	"learnspeed/domain/stage"
	"learnspeed/internal"
	"learnspeed/internal/compare"
	"learnspeed/internal/config"
	"learnspeed/internal/profiling"
	"learnspeed/internal/report"
	"learnspeed/internal/simulation"
	"learnspeed/internal/trend"
	"learnspeed/ports"
)

// NoiseStream names the seeded stream the simulator draws from
const NoiseStream = "simulate"

// Options configure the statistical core
type Options struct {
	Simulation simulation.Config
	Compare    compare.Options
	Workers    int
	Logger     *internal.Logger
}

// DefaultOptions returns the fixed settings of the original analysis
func DefaultOptions() Options {
	return Options{
		Simulation: simulation.DefaultConfig(),
		Compare:    compare.DefaultOptions(),
	}
}

// OptionsFrom maps a validated config onto core options
func OptionsFrom(cfg *config.Config, logger *internal.Logger) Options {
	return Options{
		Simulation: simulation.Config{
			Attempts:    cfg.Simulation.Attempts,
			DriftRate:   cfg.Simulation.DriftRate,
			NoiseStdDev: cfg.Simulation.NoiseStdDev,
			ScoreCap:    cfg.Simulation.ScoreCap,
		},
		Compare: compare.Options{
			Alpha:    cfg.Analysis.Alpha,
			TieBreak: cfg.TieBreakPolicy(),
		},
		Workers: cfg.Workers,
		Logger:  logger,
	}
}

// Core is the output of the statistical stages
type Core struct {
	Observations []learning.SimulatedObservation
	Slopes       []learning.SlopeRecord
	Analysis     *learning.Analysis
	// OutputHash fingerprints slopes and comparisons bit for bit
	OutputHash core.Hash
	Stages     *stage.PipelineResult
}

// Analyze runs simulate, estimate and compare over already loaded baselines
func Analyze(ctx context.Context, baselines []learning.BaselineRecord, noise ports.NoiseSource, opts Options) (*Core, error) {
	r := newRunner(opts.Logger)
	return r.analyze(ctx, baselines, noise, opts)
}

func (r *runner) analyze(ctx context.Context, baselines []learning.BaselineRecord, noise ports.NoiseSource, opts Options) (*Core, error) {
	c := &Core{Stages: r.results}

	err := r.exec(ctx, stage.StageSimulate, func(ctx context.Context) (stage.StageMetrics, error) {
		obs, err := simulation.New(opts.Simulation, noise).Simulate(ctx, baselines)
		if err != nil {
			return stage.StageMetrics{}, err
		}
		c.Observations = obs
		return stage.StageMetrics{ProcessedCount: len(baselines), ProducedCount: len(obs)}, nil
	})
	if err != nil {
		return c, err
	}

	err = r.exec(ctx, stage.StageEstimate, func(ctx context.Context) (stage.StageMetrics, error) {
		slopes, err := trend.NewEstimator(opts.Workers).EstimateAll(ctx, c.Observations)
		if err != nil {
			return stage.StageMetrics{}, err
		}
		c.Slopes = slopes
		return stage.StageMetrics{ProcessedCount: len(c.Observations), ProducedCount: len(slopes)}, nil
	})
	if err != nil {
		return c, err
	}

	err = r.exec(ctx, stage.StageCompare, func(ctx context.Context) (stage.StageMetrics, error) {
		analysis, err := compare.Compare(c.Slopes, opts.Compare)
		if err != nil {
			return stage.StageMetrics{}, err
		}
		c.Analysis = analysis
		return stage.StageMetrics{
			ProcessedCount: len(c.Slopes),
			ProducedCount:  len(analysis.Comparisons),
			Custom: map[string]interface{}{
				"groups": []string{string(analysis.Groups.First), string(analysis.Groups.Second)},
				"winner": string(analysis.Overall.Winner),
			},
		}, nil
	})
	if err != nil {
		return c, err
	}

	c.OutputHash = run.ComputeOutputHash(c.Slopes, c.Analysis.Comparisons)
	return c, nil
}

// Deps are the replaceable collaborators of a full run
type Deps struct {
	Reader   ports.BaselineReader
	RNG      ports.RNGPort
	Reporter ports.Reporter
	Logger   *internal.Logger
	Now      func() time.Time
}

// DefaultDeps wires the file loader, the seeded normal noise source and the
// file reporter for cfg
func DefaultDeps(cfg *config.Config, logger *internal.Logger) Deps {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return Deps{
		Reader:   excel.NewBaselineLoader(cfg.Input.File, SchemaFor(cfg)),
		RNG:      rng.NewAdapter(),
		Reporter: report.NewReporter(cfg.OutputDir, logger),
		Logger:   logger,
		Now:      time.Now,
	}
}

// SchemaFor returns the input columns configured in cfg
func SchemaFor(cfg *config.Config) excel.Schema {
	schema := excel.Schema{GroupColumn: cfg.Input.GroupColumn}
	for _, sub := range learning.Subjects() {
		schema.SubjectColumns[sub.Index()] = cfg.Input.SubjectColumns.Column(sub)
	}
	return schema
}

// Result is everything a full run produced
type Result struct {
	Core
	Baselines     []learning.BaselineRecord
	Profiles      []learning.BaselineProfile
	Seed          int64
	SeedGenerated bool
	Outputs       map[string]string
	Manifest      *run.Manifest
}

// Run executes every stage for cfg. It stops at the first failing stage and
// returns an error naming it; the partial result is returned alongside.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*Result, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	r := newRunner(deps.Logger)
	res := &Result{Core: Core{Stages: r.results}}

	res.Seed, res.SeedGenerated = cfg.ResolveSeed(deps.Now)
	if res.SeedGenerated {
		r.logger.Info("[Pipeline] no seed configured, using %d", res.Seed)
	}

	err := r.exec(ctx, stage.StageLoad, func(ctx context.Context) (stage.StageMetrics, error) {
		baselines, err := deps.Reader.Load(ctx)
		if err != nil {
			return stage.StageMetrics{}, err
		}
		res.Baselines = baselines

		profiles, err := profiling.NewBaselineProfiler(cfg.Simulation.ScoreCap).Profile(baselines)
		if err != nil {
			r.logger.Warn("[Pipeline] baseline profile skipped: %v", err)
		}
		res.Profiles = profiles
		atCap := 0
		for _, p := range profiles {
			atCap += p.AtCap
		}
		if atCap > 0 {
			r.logger.Warn("[Pipeline] %d baseline scores already at the cap of %g", atCap, cfg.Simulation.ScoreCap)
		}
		return stage.StageMetrics{
			ProcessedCount: len(baselines),
			ProducedCount:  len(baselines),
			Custom: map[string]interface{}{
				"source": deps.Reader.Source(),
				"at_cap": atCap,
			},
		}, nil
	})
	if err != nil {
		return res, err
	}

	noise, err := deps.RNG.SeededStream(ctx, NoiseStream, res.Seed)
	if err != nil {
		return res, stage.Fail(stage.StageSimulate, err)
	}

	c, err := r.analyze(ctx, res.Baselines, noise, OptionsFrom(cfg, r.logger))
	res.Core = *c
	if err != nil {
		return res, err
	}

	err = r.exec(ctx, stage.StageReport, func(ctx context.Context) (stage.StageMetrics, error) {
		outputs, err := deps.Reporter.Write(ctx, ports.ReportInput{
			Analysis:     res.Analysis,
			Observations: res.Observations,
			Slopes:       res.Slopes,
			GroupColumn:  cfg.Input.GroupColumn,
			Attempts:     cfg.Simulation.Attempts,
			Seed:         res.Seed,
			Profiles:     res.Profiles,
		})
		res.Outputs = outputs
		if err != nil {
			return stage.StageMetrics{}, err
		}
		return stage.StageMetrics{ProcessedCount: 1, ProducedCount: len(outputs)}, nil
	})
	if err != nil {
		return res, err
	}

	res.Manifest = buildManifest(cfg, deps.Reader.Source(), res)
	path := filepath.Join(cfg.OutputDir, report.FileManifest)
	if err := res.Manifest.WriteJSON(path); err != nil {
		return res, stage.Fail(stage.StageReport, err)
	}
	if res.Outputs == nil {
		res.Outputs = make(map[string]string)
	}
	res.Outputs[report.OutputManifest] = path
	r.logger.Info("[Pipeline] run %s complete: fingerprint %s, output %s",
		res.Manifest.RunID, res.Manifest.Fingerprint.Fingerprint.Short(), res.OutputHash.Short())
	return res, nil
}

// CohortHash fingerprints the loaded baselines: entity IDs, group labels and
// scores in file order
func CohortHash(baselines []learning.BaselineRecord) core.CohortHash {
	ids := make([]string, len(baselines))
	labels := make([]string, len(baselines))
	scores := make([][]float64, len(baselines))
	for i, b := range baselines {
		ids[i] = b.EntityID.String()
		labels[i] = string(b.Group)
		scores[i] = b.Scores[:]
	}
	return core.ComputeCohortHash(ids, labels, scores)
}

func buildManifest(cfg *config.Config, source string, res *Result) *run.Manifest {
	m := run.NewManifest(
		core.RunID(core.NewID()),
		source,
		len(res.Baselines),
		CohortHash(res.Baselines),
		cfg.Parameters(),
		res.Seed,
	)
	m.OutputFingerprint = res.OutputHash
	m.Stages = append(m.Stages, res.Stages.Results...)
	m.Outputs = make(map[string]string, len(res.Outputs)+1)
	for k, v := range res.Outputs {
		m.Outputs[k] = filepath.Base(v)
	}
	m.Outputs[report.OutputManifest] = report.FileManifest
	return m
}

// Replay reruns the input recorded in m with its seed and settings and
// checks that the new run reproduces it. Outputs go to cfg.OutputDir.
func Replay(ctx context.Context, cfg *config.Config, m *run.Manifest, logger *internal.Logger) (*Result, error) {
	replay := *cfg
	replay.Input.File = m.InputFile
	replay.ApplyParameters(m.Fingerprint.Parameters)
	seed := m.Seed
	replay.Seed = &seed

	res, err := Run(ctx, &replay, DefaultDeps(&replay, logger))
	if err != nil {
		return res, err
	}
	if !m.Reproduces(res.Manifest) {
		return res, fmt.Errorf("%w: run %s had fingerprint %s and output %s, replay got %s and %s",
			core.ErrNonDeterministic, m.RunID,
			m.Fingerprint.Fingerprint.Short(), m.OutputFingerprint.Short(),
			res.Manifest.Fingerprint.Fingerprint.Short(), res.Manifest.OutputFingerprint.Short())
	}
	return res, nil
}
