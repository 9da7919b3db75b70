// Package player implements the loop (C3) and oneshot (C4) players: the
// glue between a decoded audio asset and the mixer's additive Node model.
package player

import (
	"io"

	"github.com/dfsoundsense/soundsense-go/internal/control"
	"github.com/dfsoundsense/soundsense-go/internal/decode"
	"github.com/dfsoundsense/soundsense-go/internal/mixer"
)

// renderSource is the C2 "source wrapper": it couples a decoder to a
// Control cell plus the channel/global volume and pause cells, applying
// gain and static stereo pan on every render tick. It implements
// mixer.Node.
type renderSource struct {
	dec   decode.Decoder
	ctrl  *control.Source
	left  float64
	right float64

	channelVolume *control.Volume
	channelPause  *control.Pause
	globalVolume  *control.Volume
	globalPause   *control.Pause
	duckPause     *control.Pause // nil except for loop sources; owned by LoopPlayer, distinct from channelPause
	dynamicVolume *control.Volume // channel-level ducking multiplier, shared

	doneCh   chan struct{}
	doneOnce bool

	scratch []float32
}

func newRenderSource(dec decode.Decoder, ctrl *control.Source, balance float64,
	channelVolume *control.Volume, channelPause *control.Pause,
	globalVolume *control.Volume, globalPause *control.Pause,
	dynamicVolume *control.Volume, duckPause *control.Pause,
) *renderSource {
	left, right := mixer.Pan(balance)
	return &renderSource{
		dec:           dec,
		ctrl:          ctrl,
		left:          left,
		right:         right,
		channelVolume: channelVolume,
		channelPause:  channelPause,
		globalVolume:  globalVolume,
		globalPause:   globalPause,
		duckPause:     duckPause,
		dynamicVolume: dynamicVolume,
		doneCh:        make(chan struct{}),
	}
}

func (s *renderSource) markDone() {
	if !s.doneOnce {
		s.doneOnce = true
		close(s.doneCh)
	}
}

// Render implements mixer.Node. out is interleaved stereo float32.
func (s *renderSource) Render(out []float32) bool {
	frames := len(out) / mixer.Channels

	if s.ctrl.Stopped() || s.ctrl.TestAndClearSkip() {
		for i := range out {
			out[i] = 0
		}
		s.dec.Close()
		s.markDone()
		return false
	}

	if s.channelPause.Load() || s.globalPause.Load() || (s.duckPause != nil && s.duckPause.Load()) {
		for i := range out {
			out[i] = 0
		}
		return true
	}

	gain := s.ctrl.Volume.Load() * s.dynamicVolume.Load() * s.channelVolume.Load() * s.globalVolume.Load()

	decChans := s.dec.Format().Channels
	if decChans < 1 {
		decChans = 1
	}
	need := frames * decChans
	if cap(s.scratch) < need {
		s.scratch = make([]float32, need)
	}
	buf := s.scratch[:need]

	n, err := s.dec.Read(buf)
	framesRead := n / decChans

	for f := 0; f < framesRead; f++ {
		var monoOrL, r float32
		if decChans == 1 {
			monoOrL = buf[f]
			r = monoOrL
		} else {
			monoOrL = buf[f*decChans]
			r = buf[f*decChans+1]
		}
		out[f*2] = monoOrL * float32(gain*s.left)
		out[f*2+1] = r * float32(gain*s.right)
	}
	for f := framesRead; f < frames; f++ {
		out[f*2] = 0
		out[f*2+1] = 0
	}

	if err == io.EOF || framesRead < frames {
		s.dec.Close()
		s.markDone()
		return false
	}
	return true
}
