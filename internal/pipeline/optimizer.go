package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/texopt-project/texopt/internal/alpha"
	"github.com/texopt-project/texopt/internal/config"
	"github.com/texopt-project/texopt/internal/encoder"
	"github.com/texopt-project/texopt/internal/plan"
	"github.com/texopt-project/texopt/internal/scanner"
	"github.com/texopt-project/texopt/internal/texture"
)

// Optimizer is one optimization session: it owns the settings, the
// analysis cache, and the parser statistics. It is not safe for
// concurrent method calls; the parallelism lives inside each phase.
type Optimizer struct {
	cfg    *config.Settings
	cache  *Cache
	engine *plan.Engine
	alpha  alpha.Strategy
	client *encoder.Client
	logger *slog.Logger
	runID  string

	// Stats tallies header parse outcomes, reset at each analyze.
	Stats texture.Stats
}

// New creates an Optimizer session over the given settings.
func New(cfg *config.Settings, logger *slog.Logger, dryRun bool) *Optimizer {
	return &Optimizer{
		cfg:    cfg,
		cache:  NewCache(),
		engine: plan.NewEngine(cfg),
		alpha:  alpha.NewScanner(uint8(cfg.Regular.AlphaThreshold)),
		client: encoder.NewClient(cfg, logger, dryRun),
		logger: logger,
		runID:  uuid.NewString(),
	}
}

// RunID identifies this session in exported reports.
func (o *Optimizer) RunID() string { return o.runID }

// Settings returns the session's current settings.
func (o *Optimizer) Settings() *config.Settings { return o.cfg }

// UpdateSettings replaces the session settings. The analysis cache is
// invalidated immediately: any process call before the next analyze
// fails with a ConfigurationError.
func (o *Optimizer) UpdateSettings(cfg *config.Settings) {
	o.cfg = cfg
	o.engine = plan.NewEngine(cfg)
	o.alpha = alpha.NewScanner(uint8(cfg.Regular.AlphaThreshold))
	o.client = encoder.NewClient(cfg, o.logger, false)
	o.cache.Invalidate()
	o.logger.Debug("settings updated, analysis cache invalidated")
}

// Analyze discovers textures under inputDir and analyzes each one,
// caching the results under the current settings fingerprint. Header
// parsing is cheap, so the worker pool only engages past the configured
// unit-count threshold. Per-file failures land in their result.
func (o *Optimizer) Analyze(ctx context.Context, inputDir string, progress Progress) ([]AnalysisResult, scanner.Stats, error) {
	files, stats, err := scanner.Find(inputDir, o.cfg)
	if err != nil {
		return nil, stats, err
	}

	o.Stats.Reset()
	started := time.Now()

	a := &analyzer{cfg: o.cfg, engine: o.engine, alpha: o.alpha, root: inputDir}
	parallel := o.cfg.Parallel.Enabled && len(files) > o.cfg.Parallel.AnalyzeThreshold
	results := runAll(ctx, files, parallel, workerCount(o.cfg), progress, a.analyzeOne)

	for _, r := range results {
		if r.OK() {
			o.Stats.FastParses++
		} else {
			o.Stats.Fallbacks++
		}
	}

	o.cache.Replace(o.cfg.Fingerprint(), results)
	o.logger.Info("analysis complete",
		"files", len(results),
		"parallel", parallel,
		"elapsed", time.Since(started),
	)
	return results, stats, nil
}

// Process re-encodes every file cached by the last Analyze into
// outputDir. It fails fast with a ConfigurationError when no analysis is
// cached or the settings fingerprint no longer matches; per-file encoder
// failures are isolated into their results.
func (o *Optimizer) Process(ctx context.Context, inputDir, outputDir string, progress Progress) ([]ProcessingResult, error) {
	if err := o.cache.Check(o.cfg.Fingerprint()); err != nil {
		return nil, err
	}

	paths := o.cache.Paths()
	started := time.Now()

	p := &processor{cfg: o.cfg, client: o.client, cache: o.cache, srcRoot: inputDir, dstRoot: outputDir}
	parallel := o.cfg.Parallel.Enabled && len(paths) > 1
	results := runAll(ctx, paths, parallel, workerCount(o.cfg), progress, p.processOne)

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	o.logger.Info("processing complete",
		"files", len(results),
		"failed", failed,
		"elapsed", time.Since(started),
	)
	return results, nil
}

// Cached returns the cached analysis for a relative path.
func (o *Optimizer) Cached(rel string) (AnalysisResult, bool) {
	return o.cache.Get(rel)
}

// CacheLen returns the number of cached analysis entries.
func (o *Optimizer) CacheLen() int { return o.cache.Len() }
