// Package progress implements the --progress status line supplemented
// into the receiver's buffered phase (SPEC_FULL §11): a live-updating
// stderr line tracking directories scanned, entries matched, and elapsed
// time, adapted from the teacher's pub/sub ProgressReporter into a set of
// atomic counters suitable for concurrent walker workers.
package progress

import (
	"sync/atomic"
	"time"
)

// Reporter accumulates counters that every worker thread updates
// concurrently. It has no channel-based subscription model (unlike the
// teacher's ProgressReporter) since a single live display is the only
// consumer here; Snapshot is cheap enough to poll from a ticker.
type Reporter struct {
	start   time.Time
	dirs    int64
	matched int64
	bytes   int64
}

// New starts a Reporter's elapsed-time clock immediately.
func New() *Reporter {
	return &Reporter{start: time.Now()}
}

// IncDir records one directory having been read.
func (r *Reporter) IncDir() { atomic.AddInt64(&r.dirs, 1) }

// IncMatched records one entry having been accepted.
func (r *Reporter) IncMatched() { atomic.AddInt64(&r.matched, 1) }

// AddBytes accumulates the size of a matched entry, when known, into the
// running total the live display renders via pkg/utils.FormatBytes.
func (r *Reporter) AddBytes(n int64) { atomic.AddInt64(&r.bytes, n) }

// Snapshot returns the current counters and elapsed time.
func (r *Reporter) Snapshot() (dirs, matched, bytes int64, elapsed time.Duration) {
	return atomic.LoadInt64(&r.dirs), atomic.LoadInt64(&r.matched), atomic.LoadInt64(&r.bytes), time.Since(r.start)
}

// FormatDuration renders a duration the way the teacher's progress
// package does, at second resolution for anything beyond a few seconds.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	d = d.Round(time.Second)
	return d.String()
}
