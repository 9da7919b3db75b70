package player

import (
	"github.com/dfsoundsense/soundsense-go/internal/control"
	"github.com/dfsoundsense/soundsense-go/internal/decode"
	"github.com/dfsoundsense/soundsense-go/internal/logging"
	"github.com/dfsoundsense/soundsense-go/internal/mixer"
)

// OneshotPlayer is the C4 player: a set of transient sources, each with
// its own Control, reaped once finished or stopped.
type OneshotPlayer struct {
	mixer *mixer.Mixer

	channelVolume *control.Volume
	channelPause  *control.Pause
	globalVolume  *control.Volume
	globalPause   *control.Pause
	dynamicVolume *control.Volume // always 1.0 for oneshots; ducking applies to existing ones individually

	items []*oneshotItem
}

type oneshotItem struct {
	ctrl   *control.Source
	doneCh chan struct{}
}

func NewOneshotPlayer(m *mixer.Mixer, channelVolume *control.Volume, channelPause *control.Pause,
	globalVolume *control.Volume, globalPause *control.Pause,
) *OneshotPlayer {
	return &OneshotPlayer{
		mixer:         m,
		channelVolume: channelVolume,
		channelPause:  channelPause,
		globalVolume:  globalVolume,
		globalPause:   globalPause,
		dynamicVolume: control.NewVolume(1.0),
	}
}

// Len is the number of currently-live oneshots.
func (op *OneshotPlayer) Len() int { return len(op.items) }

// Duck multiplies every existing oneshot's volume by factor (0.5 when a
// new oneshot starts).
func (op *OneshotPlayer) Duck(factor float64) {
	for _, item := range op.items {
		item.ctrl.Volume.Store(item.ctrl.Volume.Load() * factor)
	}
}

// AddSource decodes path and enqueues it as a new live oneshot.
func (op *OneshotPlayer) AddSource(path string, amplification, balance float64) {
	dec, err := decode.Open(path)
	if err != nil {
		logging.Warn("oneshot player: failed to decode file, skipping", "path", path, "error", err)
		return
	}
	ctrl := control.NewSource(amplification)
	rs := newRenderSource(dec, ctrl, balance, op.channelVolume, op.channelPause, op.globalVolume, op.globalPause, op.dynamicVolume, nil)
	op.mixer.AddNode(rs)
	op.items = append(op.items, &oneshotItem{ctrl: ctrl, doneCh: rs.doneCh})
}

// Stop marks every held oneshot stopped; they are reaped on the next
// Maintain call once the mixer observes the stop and closes doneCh.
func (op *OneshotPlayer) Stop() {
	for _, item := range op.items {
		item.ctrl.Stop()
	}
}

// Maintain reaps oneshots whose source has finished or been stopped.
func (op *OneshotPlayer) Maintain() {
	live := op.items[:0]
	for _, item := range op.items {
		select {
		case <-item.doneCh:
			// finished or stopped; drop it
		default:
			live = append(live, item)
		}
	}
	op.items = live
}
