package ui

import (
	"fmt"
	"time"
)

// platformLine is printed when a platform batch finishes.
// Format: Windows  ok 1,204  failed 0  size 312.4 MiB
func platformLine(platform string, ok, failed, bytes int64) string {
	return fmt.Sprintf("%s  ok %s  failed %s  size %s",
		platform, FormatCount(ok), FormatCount(failed), FormatBytes(bytes))
}

// completionSummary builds a final summary line.
// Format: done ✓  platforms 2  ops 2,408  size 624.8 MiB  avg 44.6 MB/s  time 14s  errors 0
func completionSummary(t *tally, elapsed time.Duration) string {
	avgSpeed := 0.0
	if elapsed.Seconds() > 0 {
		avgSpeed = float64(t.totalBytes) / elapsed.Seconds()
	}

	icon := "✓"
	if t.totalFailed > 0 {
		icon = "✗"
	}
	return fmt.Sprintf("done %s  platforms %d  ops %s  size %s  avg %s  time %s  errors %d",
		icon,
		t.platforms,
		FormatCount(t.totalOK),
		FormatBytes(t.totalBytes),
		FormatRate(avgSpeed),
		FormatDuration(elapsed),
		t.totalFailed,
	)
}
