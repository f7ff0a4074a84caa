package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bamsammich/rpgpack/internal/event"
	"github.com/bamsammich/rpgpack/internal/platform"
	"github.com/bamsammich/rpgpack/internal/policy"
	"github.com/bamsammich/rpgpack/internal/rpgmaker"
	"github.com/bamsammich/rpgpack/internal/scramble"
	"github.com/bamsammich/rpgpack/internal/stats"
)

// ErrBatchFailed marks a platform batch in which at least one operation failed.
var ErrBatchFailed = errors.New("operations failed")

// WorkerConfig controls worker behavior.
type WorkerConfig struct {
	NumWorkers   int
	Key          scramble.Key
	RuntimeLinks bool                // hardlink Runtime-origin copies
	ProjectLinks bool                // hardlink Project-origin copies and cached scrambles
	Cache        *EncryptedFileCache // nil disables scramble reuse
	Events       chan<- event.Event
	Logger       *slog.Logger
}

// WorkerPool executes platform batches. One pool serves a whole run.
type WorkerPool struct {
	cfg    WorkerConfig
	tmp    *tmpRegistry
	logger *slog.Logger
}

// BatchResult is the outcome of one platform batch.
type BatchResult struct {
	Stats  stats.Snapshot
	Failed int64
	Err    error // wraps ErrBatchFailed, or the context error
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(cfg WorkerConfig) (*WorkerPool, error) {
	if cfg.NumWorkers < 1 {
		return nil, fmt.Errorf("worker count must be positive, got %d", cfg.NumWorkers)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{cfg: cfg, tmp: &tmpRegistry{}, logger: logger}, nil
}

// Tracker exposes the pool's temporary file registry for writes made outside
// a batch, such as the system config patch.
//
//nolint:ireturn // the registry is internal
func (wp *WorkerPool) Tracker() platform.TmpTracker {
	return wp.tmp
}

// Close removes temporary files left by interrupted writes.
func (wp *WorkerPool) Close() {
	wp.tmp.cleanup()
}

// RunBatch executes ops for one platform and blocks until every submitted
// operation has finished. A failing operation never stops its siblings;
// cancelling ctx only stops submission of the remaining ones.
func (wp *WorkerPool) RunBatch(ctx context.Context, p rpgmaker.Platform, outRoot string, ops []Operation) BatchResult {
	collector := stats.NewCollector()
	collector.AddOpsPlanned(int64(len(ops)))

	var (
		mu       sync.Mutex
		firstErr error
	)

	var g errgroup.Group
	g.SetLimit(wp.cfg.NumWorkers)

	submitted := 0
	for _, op := range ops {
		if ctx.Err() != nil {
			break
		}
		submitted++
		g.Go(func() error {
			ev, err := wp.execute(p, op, collector)
			ev.Platform = p.String()
			ev.Path = displayPath(outRoot, op.Dst)
			if err != nil {
				collector.AddOpsFailed(1)
				wp.logger.Error("operation failed",
					"platform", p, "src", op.Src, "dst", op.Dst, "error", err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				ev.Type = event.OpFailed
				ev.Error = err
			} else {
				collector.AddOpsSucceeded(1)
			}
			emitEvent(wp.cfg.Events, ev)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	snap := collector.Snapshot()
	res := BatchResult{Stats: snap, Failed: snap.OpsFailed}
	switch {
	case snap.OpsFailed > 0:
		res.Err = fmt.Errorf("%w: %d of %d (first: %w)", ErrBatchFailed, snap.OpsFailed, len(ops), firstErr)
	case submitted < len(ops):
		res.Err = fmt.Errorf("%d operations not started: %w", len(ops)-submitted, ctx.Err())
	}
	return res
}

func (wp *WorkerPool) execute(p rpgmaker.Platform, op Operation, c *stats.Collector) (event.Event, error) {
	switch op.Action {
	case Copy:
		return wp.copyOp(op, c)
	case Scramble:
		return wp.scrambleOp(p, op, c)
	default:
		return event.Event{}, fmt.Errorf("unknown action %d for %s", op.Action, op.Src)
	}
}

func (wp *WorkerPool) linksAllowed(origin policy.Origin) bool {
	switch origin {
	case policy.Runtime:
		return wp.cfg.RuntimeLinks
	case policy.Project:
		return wp.cfg.ProjectLinks
	default:
		return false
	}
}

func (wp *WorkerPool) copyOp(op Operation, c *stats.Collector) (event.Event, error) {
	if wp.linksAllowed(op.Origin) {
		if err := replaceWithLink(op.Src, op.Dst); err != nil {
			return event.Event{}, err
		}
		c.AddHardlinksCreated(1)
		return event.Event{Type: event.HardlinkCreated}, nil
	}

	srcInfo, err := os.Stat(op.Src)
	if err != nil {
		return event.Event{}, fmt.Errorf("stat %s: %w", op.Src, err)
	}

	// Update-copy: an existing destination at least as new as the source stays.
	if dstInfo, err := os.Stat(op.Dst); err == nil && dstInfo.Mode().IsRegular() &&
		!dstInfo.ModTime().Before(srcInfo.ModTime()) {
		c.AddFilesSkipped(1)
		return event.Event{Type: event.Skipped}, nil
	}

	n, err := platform.WriteFileAtomic(op.Dst, srcInfo.Mode().Perm(), wp.tmp, func(f *os.File) (int64, error) {
		res, err := platform.CopyFile(op.Src, f, srcInfo.Size())
		return res.BytesWritten, err
	})
	if err != nil {
		return event.Event{}, fmt.Errorf("copy %s: %w", op.Src, err)
	}

	c.AddFilesCopied(1)
	c.AddBytesWritten(n)
	return event.Event{Type: event.OpCompleted, Size: n}, nil
}

func (wp *WorkerPool) scrambleOp(p rpgmaker.Platform, op Operation, c *stats.Collector) (event.Event, error) {
	if wp.cfg.Cache != nil {
		if entry, ok := wp.cfg.Cache.Lookup(op.Src); ok && entry.Platform != p {
			if wp.linkCached(op, entry) {
				c.AddCacheHits(1)
				c.AddHardlinksCreated(1)
				return event.Event{Type: event.CacheHit}, nil
			}
		}
	}

	n, err := scramble.EncryptFile(op.Src, op.Dst, wp.cfg.Key, wp.tmp)
	if err != nil {
		return event.Event{}, err
	}
	if wp.cfg.Cache != nil {
		wp.cfg.Cache.Store(op.Src, op.Dst, p)
	}

	c.AddFilesScrambled(1)
	c.AddBytesWritten(n)
	return event.Event{Type: event.Scrambled, Size: n}, nil
}

// linkCached hardlinks an earlier platform's scrambled output into place.
// It reports false when the caller has to scramble instead.
func (wp *WorkerPool) linkCached(op Operation, entry CacheEntry) bool {
	if !wp.linksAllowed(op.Origin) {
		return false
	}
	if _, err := os.Stat(entry.Dst); err != nil {
		wp.logger.Warn("cached scramble output is gone, scrambling again",
			"src", op.Src, "cached", entry.Dst, "error", err)
		wp.cfg.Cache.Drop(op.Src)
		return false
	}
	if !platform.SameDevice(entry.Dst, filepath.Dir(op.Dst)) {
		return false
	}
	if err := replaceWithLink(entry.Dst, op.Dst); err != nil {
		wp.logger.Warn("linking cached scramble output failed",
			"src", op.Src, "cached", entry.Dst, "dst", op.Dst, "error", err)
		return false
	}
	return true
}

// replaceWithLink removes dst, which os.Link refuses to overwrite, and links
// target in its place.
func replaceWithLink(target, dst string) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", dst, err)
	}
	if err := os.Link(target, dst); err != nil {
		return fmt.Errorf("hardlink %s -> %s: %w", dst, target, err)
	}
	return nil
}

func displayPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
