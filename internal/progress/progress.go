// Package progress tracks pixel throughput for a single tiling run.
package progress

import (
	"sync/atomic"
	"time"
)

// Meter accumulates processed pixels and tiles over the lifetime of a single
// tile() invocation and reports throughput once the run completes.
//
// Unlike the teacher's multi-worker progress bar, a Meter never renders
// anything itself — the tiler is single-threaded per run (§5 of the spec),
// so there is exactly one throughput line to log, not a live bar updated by
// concurrent workers. Callers read Snapshot() and log it themselves.
type Meter struct {
	start  time.Time
	pixels atomic.Int64
	tiles  atomic.Int64
}

// NewMeter starts a throughput meter.
func NewMeter() *Meter {
	return &Meter{start: time.Now()}
}

// AddTile records one tile of the given pixel dimensions as processed.
func (m *Meter) AddTile(width, height int) {
	m.tiles.Add(1)
	m.pixels.Add(int64(width) * int64(height))
}

// Snapshot is a point-in-time readout of the meter.
type Snapshot struct {
	Tiles           int64
	Pixels          int64
	Elapsed         time.Duration
	MPixelsPerSecond float64
}

// Snapshot returns the current throughput.
func (m *Meter) Snapshot() Snapshot {
	elapsed := time.Since(m.start)
	pixels := m.pixels.Load()

	var rate float64
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(pixels) / secs / 1_000_000
	}

	return Snapshot{
		Tiles:            m.tiles.Load(),
		Pixels:           pixels,
		Elapsed:          elapsed,
		MPixelsPerSecond: rate,
	}
}
