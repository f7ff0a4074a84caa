package ui

import (
	"fmt"
	"io"
	"time"
)

// plainPresenter writes one line per platform transition and per failure.
// In verbose mode every finished operation gets a line too.
type plainPresenter struct {
	w       io.Writer
	verbose bool
	start   time.Time
	tally
}

func (p *plainPresenter) Run(events <-chan Event) error {
	for ev := range events {
		p.observe(ev)
		p.handleEvent(ev)
	}
	return nil
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case PlatformStarted:
		fmt.Fprintf(p.w, "%s: %s operations\n", ev.Platform, FormatCount(ev.Size))
	case PlatformComplete:
		fmt.Fprintln(p.w, platformLine(p.platform, p.ok, p.failed, p.bytes))
	case OpFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.w, "%s  %s\n", ev.Path, errMsg)
	case VerifyFailed:
		fmt.Fprintf(p.w, "MISMATCH: %s\n", ev.Path)
	case OpCompleted:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  %s\n", ev.Path, FormatBytes(ev.Size))
		}
	case Scrambled:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  %s  scrambled\n", ev.Path, FormatBytes(ev.Size))
		}
	case HardlinkCreated:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  linked\n", ev.Path)
		}
	case CacheHit:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  cached\n", ev.Path)
		}
	case Skipped:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  up to date\n", ev.Path)
		}
	}
}

func (p *plainPresenter) Summary() string {
	var elapsed time.Duration
	if !p.start.IsZero() {
		elapsed = time.Since(p.start)
	}
	return completionSummary(&p.tally, elapsed)
}
