// Package control implements the lock-free shared state cells (C1) read by
// the audio render callback and written by the logic goroutine.
package control

import (
	"math"
	"sync/atomic"
)

// Volume is an atomic float64 in [0, +inf). Reads are relaxed: a one-tick
// stale read is inaudible at the ~5ms render-tick granularity, so a plain
// Load/Store pair (not CAS) is sufficient.
type Volume struct {
	bits atomic.Uint64
}

func NewVolume(v float64) *Volume {
	vol := &Volume{}
	vol.Store(v)
	return vol
}

func (v *Volume) Load() float64 {
	return math.Float64frombits(v.bits.Load())
}

func (v *Volume) Store(val float64) {
	v.bits.Store(math.Float64bits(val))
}

// Pause is a shared paused flag consulted by a render tick.
type Pause struct {
	paused atomic.Bool
}

func (p *Pause) Load() bool    { return p.paused.Load() }
func (p *Pause) Store(v bool)  { p.paused.Store(v) }
func (p *Pause) Flip() bool {
	for {
		old := p.paused.Load()
		if p.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Source is the per-playing-source control block (C1): a source-local
// volume plus one-shot stopped/skip flags. Stopped must be visible in
// acquire/release order because its side effect (the render callback
// ending the stream) depends on observing the flip; Go's sync/atomic
// default Load/Store already provide that ordering.
type Source struct {
	Volume  Volume
	stopped atomic.Bool
	skip    atomic.Bool
}

func NewSource(initialVolume float64) *Source {
	s := &Source{}
	s.Volume.Store(initialVolume)
	return s
}

// Stop is idempotent: once set, the render callback must end the stream on
// its next tick.
func (s *Source) Stop() { s.stopped.Store(true) }

func (s *Source) Stopped() bool { return s.stopped.Load() }

// Skip marks the current source for early termination. The wrapper ends
// the current source on its next tick but the player continues to the
// next queued item (skip.Load used, then cleared by the reader).
func (s *Source) Skip() { s.skip.Store(true) }

// TestAndClearSkip reports whether skip was set, clearing it atomically.
func (s *Source) TestAndClearSkip() bool {
	return s.skip.Swap(false)
}
