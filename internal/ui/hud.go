package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// ANSI escape sequences.
const (
	ansiDim   = "\033[2m"
	ansiReset = "\033[0m"
	ansiClear = "\r\033[K"
)

const (
	progressBarWidth = 20
	hudMinInterval   = 50 * time.Millisecond // don't redraw faster than this
)

// hudPresenter keeps a single status line at the bottom of the terminal and
// prints failures and platform summaries above it.
type hudPresenter struct {
	w     io.Writer
	width int
	start time.Time
	tally

	hudDrawn    bool
	lastHUDDraw time.Time
}

func (p *hudPresenter) Run(events <-chan Event) error {
	redrawTicker := time.NewTicker(250 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearHUD()
				return nil
			}
			p.observe(ev)
			p.handleEvent(ev)
			p.maybeDrawHUD()
		case <-redrawTicker.C:
			if p.platform != "" {
				p.drawHUD()
			}
		}
	}
}

func (p *hudPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case PlatformComplete:
		p.clearHUD()
		fmt.Fprintf(p.w, "✓  %s\n", platformLine(p.platform, p.ok, p.failed, p.bytes))
		p.platform = ""
	case OpFailed:
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		p.clearHUD()
		fmt.Fprintf(p.w, "✗  %s  %s\n", styledPath(ev.Path), errMsg)
	case VerifyFailed:
		p.clearHUD()
		fmt.Fprintf(p.w, "✗  %s  CHECKSUM MISMATCH\n", styledPath(ev.Path))
	}
}

// maybeDrawHUD redraws the status line if enough time has passed since the last draw.
func (p *hudPresenter) maybeDrawHUD() {
	if p.platform == "" || time.Since(p.lastHUDDraw) < hudMinInterval {
		return
	}
	p.drawHUD()
}

func (p *hudPresenter) drawHUD() {
	done := p.ok + p.failed
	var pct float64
	if p.planned > 0 {
		pct = float64(done) / float64(p.planned)
	}
	line := fmt.Sprintf("%s %3.0f%%  %s  %s / %s ops  %s",
		p.platform, pct*100, ProgressBar(pct, progressBarWidth),
		FormatCount(done), FormatCount(p.planned), FormatBytes(p.bytes))
	if r := []rune(line); p.width > 1 && len(r) > p.width-1 {
		line = string(r[:p.width-1])
	}
	fmt.Fprint(p.w, ansiClear+line)
	p.hudDrawn = true
	p.lastHUDDraw = time.Now()
}

func (p *hudPresenter) clearHUD() {
	if !p.hudDrawn {
		return
	}
	fmt.Fprint(p.w, ansiClear)
	p.hudDrawn = false
}

func (p *hudPresenter) Summary() string {
	return completionSummary(&p.tally, time.Since(p.start))
}

// styledPath returns the path with the directory portion dimmed and the
// filename in normal weight, making the actual filename stand out.
func styledPath(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "." || dir == "" {
		return base
	}
	return fmt.Sprintf("%s%s/%s%s", ansiDim, dir, ansiReset, base)
}
