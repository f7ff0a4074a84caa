package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector tracks one platform batch using lock-free atomic counters.
// Workers increment it concurrently; the presenter reads Snapshots.
type Collector struct {
	opsPlanned        atomic.Int64
	opsSucceeded      atomic.Int64
	opsFailed         atomic.Int64
	filesCopied       atomic.Int64
	hardlinksCreated  atomic.Int64
	filesScrambled    atomic.Int64
	cacheHits         atomic.Int64
	filesSkipped      atomic.Int64
	bytesWritten      atomic.Int64
	filesVerified     atomic.Int64
	filesVerifyFailed atomic.Int64
	startTime         time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	OpsPlanned        int64
	OpsSucceeded      int64
	OpsFailed         int64
	FilesCopied       int64
	HardlinksCreated  int64
	FilesScrambled    int64
	CacheHits         int64
	FilesSkipped      int64
	BytesWritten      int64
	FilesVerified     int64
	FilesVerifyFailed int64
	Elapsed           time.Duration
}

func (c *Collector) AddOpsPlanned(n int64)        { c.opsPlanned.Add(n) }
func (c *Collector) AddOpsSucceeded(n int64)      { c.opsSucceeded.Add(n) }
func (c *Collector) AddOpsFailed(n int64)         { c.opsFailed.Add(n) }
func (c *Collector) AddFilesCopied(n int64)       { c.filesCopied.Add(n) }
func (c *Collector) AddHardlinksCreated(n int64)  { c.hardlinksCreated.Add(n) }
func (c *Collector) AddFilesScrambled(n int64)    { c.filesScrambled.Add(n) }
func (c *Collector) AddCacheHits(n int64)         { c.cacheHits.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)      { c.filesSkipped.Add(n) }
func (c *Collector) AddBytesWritten(n int64)      { c.bytesWritten.Add(n) }
func (c *Collector) AddFilesVerified(n int64)     { c.filesVerified.Add(n) }
func (c *Collector) AddFilesVerifyFailed(n int64) { c.filesVerifyFailed.Add(n) }

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		OpsPlanned:        c.opsPlanned.Load(),
		OpsSucceeded:      c.opsSucceeded.Load(),
		OpsFailed:         c.opsFailed.Load(),
		FilesCopied:       c.filesCopied.Load(),
		HardlinksCreated:  c.hardlinksCreated.Load(),
		FilesScrambled:    c.filesScrambled.Load(),
		CacheHits:         c.cacheHits.Load(),
		FilesSkipped:      c.filesSkipped.Load(),
		BytesWritten:      c.bytesWritten.Load(),
		FilesVerified:     c.filesVerified.Load(),
		FilesVerifyFailed: c.filesVerifyFailed.Load(),
		Elapsed:           c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// Done reports whether every planned operation has finished.
func (s Snapshot) Done() bool {
	return s.OpsSucceeded+s.OpsFailed >= s.OpsPlanned
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"planned=%d ok=%d failed=%d copied=%d hardlinks=%d scrambled=%d cached=%d skipped=%d bytes=%d",
		s.OpsPlanned, s.OpsSucceeded, s.OpsFailed, s.FilesCopied, s.HardlinksCreated,
		s.FilesScrambled, s.CacheHits, s.FilesSkipped, s.BytesWritten,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
