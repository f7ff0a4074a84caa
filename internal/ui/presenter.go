package ui

import (
	"io"
	"time"
)

// Presenter consumes events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer    io.Writer
	ErrWriter io.Writer
	Width     int // terminal columns for the live status line
	IsTTY     bool
	Quiet     bool
	Verbose   bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{}
	}
	if !cfg.IsTTY || cfg.Verbose {
		return &plainPresenter{
			w:       cfg.Writer,
			verbose: cfg.Verbose,
			start:   time.Now(),
		}
	}
	width := cfg.Width
	if width <= 0 {
		width = defaultWidth
	}
	return &hudPresenter{
		w:     cfg.ErrWriter, // status line renders to stderr (the TTY)
		width: width,
		start: time.Now(),
	}
}

// tally accumulates per-platform and run-wide counts from events.
type tally struct {
	platform string
	planned  int64
	ok       int64
	failed   int64
	bytes    int64

	platforms   int
	totalOK     int64
	totalFailed int64
	totalBytes  int64
}

func (t *tally) observe(ev Event) {
	switch {
	case ev.Type == PlatformStarted:
		t.platform = ev.Platform
		t.planned = ev.Size
		t.ok, t.failed, t.bytes = 0, 0, 0
		t.platforms++
	case ev.Type == OpFailed:
		t.failed++
		t.totalFailed++
	case isTerminal(ev.Type):
		t.ok++
		t.bytes += ev.Size
		t.totalOK++
		t.totalBytes += ev.Size
	}
}

// quietPresenter drains events without output.
type quietPresenter struct{}

func (*quietPresenter) Run(events <-chan Event) error {
	for range events {
	}
	return nil
}

func (*quietPresenter) Summary() string { return "" }
