package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bamsammich/rpgpack/internal/event"
	"github.com/bamsammich/rpgpack/internal/filter"
	"github.com/bamsammich/rpgpack/internal/platform"
	"github.com/bamsammich/rpgpack/internal/reach"
	"github.com/bamsammich/rpgpack/internal/rpgmaker"
	"github.com/bamsammich/rpgpack/internal/scramble"
	"github.com/bamsammich/rpgpack/internal/stats"
)

// Worker count bounds. Out-of-range values fall back to DefaultWorkers.
const (
	DefaultWorkers = 2
	MaxWorkers     = 10
)

var (
	// ErrPassphraseRequired is returned when encryption is requested without
	// a passphrase.
	ErrPassphraseRequired = errors.New("encryption requires a passphrase")
	// ErrInvalidConfig covers missing roots and unknown generations.
	ErrInvalidConfig = errors.New("invalid build configuration")
)

// Config describes a build.
type Config struct {
	ProjectDir string
	RuntimeDir string
	OutputDir  string // expected to be empty or absent
	Gen        rpgmaker.Generation
	Platforms  []rpgmaker.Platform

	EncryptImages bool
	EncryptAudio  bool
	Passphrase    string

	ExcludeUnused bool
	Hardlinks     bool
	Cache         bool
	Workers       int
	Verify        bool

	Filter *filter.Chain
	Events chan<- event.Event
	Logger *slog.Logger
}

// PlatformResult is the outcome of one platform.
type PlatformResult struct {
	Platform rpgmaker.Platform
	Stats    stats.Snapshot
	Verify   VerifyResult
	Err      error
}

// Result is the outcome of a build.
type Result struct {
	Platforms []PlatformResult
	Err       error
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Config) encrypting() bool {
	return c.EncryptImages || c.EncryptAudio
}

// Validate rejects unusable configurations and clamps the ones with a safe
// default, logging a warning for each adjustment.
func (c *Config) Validate() error {
	logger := c.logger()

	if c.ProjectDir == "" {
		return fmt.Errorf("%w: no project folder", ErrInvalidConfig)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: no output folder", ErrInvalidConfig)
	}
	if c.Gen != rpgmaker.MV && c.Gen != rpgmaker.MZ {
		return fmt.Errorf("%w: unknown generation %d", ErrInvalidConfig, int(c.Gen))
	}
	if err := rpgmaker.ValidatePlatforms(c.Gen, c.Platforms); err != nil {
		return err
	}
	for _, p := range c.Platforms {
		if rpgmaker.TemplateFolder(c.Gen, p) != "" && c.RuntimeDir == "" {
			return fmt.Errorf("%w: %s needs the engine installation folder", ErrInvalidConfig, p)
		}
	}

	if c.encrypting() && c.Passphrase == "" {
		return ErrPassphraseRequired
	}

	if c.Workers < 1 || c.Workers > MaxWorkers {
		logger.Warn("worker count out of range, using default",
			"workers", c.Workers, "max", MaxWorkers, "default", DefaultWorkers)
		c.Workers = DefaultWorkers
	}

	if c.Cache && !c.Hardlinks {
		logger.Warn("cache needs hardlinks, disabling cache")
		c.Cache = false
	}
	if c.Cache && !c.encrypting() {
		logger.Warn("cache only applies to encrypted files, disabling cache")
		c.Cache = false
	}
	return nil
}

// Run analyzes the project once, then plans and executes each platform in
// order. It stops at the first platform that fails.
func Run(ctx context.Context, cfg Config) Result {
	if err := cfg.Validate(); err != nil {
		return Result{Err: err}
	}
	logger := cfg.logger()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return Result{Err: fmt.Errorf("create output: %w", err)}
	}

	catalog := rpgmaker.NewCatalog(cfg.ProjectDir, cfg.Gen, logger)

	var set *reach.Set
	if cfg.ExcludeUnused {
		analyzer := reach.Analyzer{Gen: cfg.Gen, Catalog: catalog, Logger: logger}
		var err error
		if set, err = analyzer.Analyze(cfg.ProjectDir); err != nil {
			return Result{Err: fmt.Errorf("analyze project: %w", err)}
		}
	}

	var key scramble.Key
	if cfg.encrypting() {
		key = scramble.KeyFromPassphrase(cfg.Passphrase)
	}

	var cache *EncryptedFileCache
	if cfg.Cache {
		cache = NewEncryptedFileCache()
	}

	runtimeLinks := cfg.Hardlinks && cfg.RuntimeDir != "" && platform.SameDevice(cfg.RuntimeDir, cfg.OutputDir)
	projectLinks := cfg.Hardlinks && platform.SameDevice(cfg.ProjectDir, cfg.OutputDir)
	if cfg.Hardlinks && !projectLinks {
		logger.Info("project and output are on different volumes, copying instead of linking")
	}

	wp, err := NewWorkerPool(WorkerConfig{
		NumWorkers:   cfg.Workers,
		Key:          key,
		RuntimeLinks: runtimeLinks,
		ProjectLinks: projectLinks,
		Cache:        cache,
		Events:       cfg.Events,
		Logger:       logger,
	})
	if err != nil {
		return Result{Err: fmt.Errorf("create worker pool: %w", err)}
	}
	defer wp.Close()

	planner := NewPlanner(PlannerConfig{
		Gen:           cfg.Gen,
		ProjectDir:    cfg.ProjectDir,
		RuntimeDir:    cfg.RuntimeDir,
		OutputDir:     cfg.OutputDir,
		Catalog:       catalog,
		Set:           set,
		EncryptImages: cfg.EncryptImages,
		EncryptAudio:  cfg.EncryptAudio,
		Key:           key,
		Filter:        cfg.Filter,
		Tracker:       wp.Tracker(),
		Logger:        logger,
	})

	var result Result
	for _, p := range cfg.Platforms {
		if err := ctx.Err(); err != nil {
			result.Err = err
			break
		}

		ops, err := planner.Plan(p)
		if err != nil {
			result.Err = fmt.Errorf("plan %s: %w", p, err)
			break
		}

		outRoot := planner.PlatformDir(p)
		emitEvent(cfg.Events, event.Event{Type: event.PlatformStarted, Platform: p.String(), Size: int64(len(ops))})
		batch := wp.RunBatch(ctx, p, outRoot, ops)
		pr := PlatformResult{Platform: p, Stats: batch.Stats, Err: batch.Err}

		if cfg.Verify && pr.Err == nil {
			pr.Verify = Verify(ctx, VerifyConfig{
				Ops:      ops,
				Key:      key,
				Workers:  cfg.Workers,
				Platform: p.String(),
				OutRoot:  outRoot,
				Events:   cfg.Events,
			})
			pr.Stats.FilesVerified = pr.Verify.Verified
			pr.Stats.FilesVerifyFailed = pr.Verify.Failed
			if pr.Verify.Failed > 0 {
				pr.Err = fmt.Errorf("%w: %d files", ErrVerifyFailed, pr.Verify.Failed)
			}
		}
		emitEvent(cfg.Events, event.Event{Type: event.PlatformComplete, Platform: p.String()})

		result.Platforms = append(result.Platforms, pr)
		if pr.Err != nil {
			logger.Error("platform failed", "platform", p, "error", pr.Err)
			result.Err = fmt.Errorf("%s: %w", p, pr.Err)
			break
		}
		logger.Info("platform complete", "platform", p, "stats", pr.Stats.String())
	}
	return result
}
