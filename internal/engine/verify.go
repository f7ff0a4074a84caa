package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bamsammich/rpgpack/internal/event"
	"github.com/bamsammich/rpgpack/internal/scramble"
)

// ErrVerifyFailed marks a platform whose output did not match its sources.
var ErrVerifyFailed = errors.New("verification failed")

// VerifyConfig controls the post-build verification pass.
type VerifyConfig struct {
	Ops      []Operation
	Key      scramble.Key
	Workers  int
	Platform string
	OutRoot  string
	Events   chan<- event.Event
}

// VerifyResult holds the outcome of a verification pass.
type VerifyResult struct {
	Verified int64
	Failed   int64
	Errors   []VerifyError
}

// VerifyError records a single checksum mismatch.
type VerifyError struct {
	Path    string
	SrcHash string
	DstHash string
}

// Verify compares the BLAKE3 checksum of every operation's source with its
// output. Scrambled outputs are decoded before hashing.
func Verify(ctx context.Context, cfg VerifyConfig) VerifyResult {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	var (
		mu     sync.Mutex
		result VerifyResult
	)
	fail := func(op Operation, srcHash, dstHash string, err error) {
		path := displayPath(cfg.OutRoot, op.Dst)
		mu.Lock()
		result.Failed++
		result.Errors = append(result.Errors, VerifyError{Path: path, SrcHash: srcHash, DstHash: dstHash})
		mu.Unlock()
		emitEvent(cfg.Events, event.Event{
			Type:     event.VerifyFailed,
			Platform: cfg.Platform,
			Path:     path,
			Error:    err,
		})
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, op := range cfg.Ops {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			srcHash, err := HashFile(op.Src)
			if err != nil {
				fail(op, "error", "n/a", err)
				return nil
			}

			var dstHash string
			if op.Action == Scramble {
				dstHash, err = HashScrambled(op.Dst, cfg.Key)
			} else {
				dstHash, err = HashFile(op.Dst)
			}
			if err != nil {
				fail(op, srcHash, "error", err)
				return nil
			}

			if srcHash != dstHash {
				fail(op, srcHash, dstHash, nil)
				return nil
			}
			mu.Lock()
			result.Verified++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return result
}

func emitEvent(ch chan<- event.Event, e event.Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	ch <- e
}
