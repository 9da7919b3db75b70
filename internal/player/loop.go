package player

import (
	"math/rand"

	"github.com/dfsoundsense/soundsense-go/internal/control"
	"github.com/dfsoundsense/soundsense-go/internal/decode"
	"github.com/dfsoundsense/soundsense-go/internal/logging"
	"github.com/dfsoundsense/soundsense-go/internal/mixer"
	"github.com/dfsoundsense/soundsense-go/internal/soundmodel"
)

// LoopFile is one entry of a LoopPlayer's rotating deque: either a single
// path or an already-expanded playlist of paths, plus per-file gain/pan.
type LoopFile struct {
	Source        soundmodel.SoundSource
	Amplification float64
	RandomBalance bool
	Balance       float64
}

// LoopPlayer is the C3 loop player: it owns a rotating deque of files. The
// logic goroutine (D1) opens/decodes one file at a time and registers it
// with the mixer as a render node; the mixer's render callback (D2) closes
// that node's done channel once the source ends, and the next file is
// started on the following Maintain call — see DESIGN.md Open Question 5
// for why this replaces rodio's SourcesQueueInput.
type LoopPlayer struct {
	mixer *mixer.Mixer

	channelVolume *control.Volume
	channelPause  *control.Pause
	globalVolume  *control.Volume
	globalPause   *control.Pause
	dynamicVolume *control.Volume

	// duck is the loop's own pause flag, distinct from channelPause: the
	// channel sets this while a oneshot is occupying the channel, without
	// touching the channel's user-facing pause cell.
	duck control.Pause

	deque        []LoopFile
	pendingPaths []string // remaining paths of the front file's playlist, if any
	current      *activeLoopItem
	stopped      bool
}

type activeLoopItem struct {
	ctrl   *control.Source
	doneCh chan struct{}
}

func NewLoopPlayer(m *mixer.Mixer, channelVolume *control.Volume, channelPause *control.Pause,
	globalVolume *control.Volume, globalPause *control.Pause, dynamicVolume *control.Volume,
) *LoopPlayer {
	return &LoopPlayer{
		mixer:         m,
		channelVolume: channelVolume,
		channelPause:  channelPause,
		globalVolume:  globalVolume,
		globalPause:   globalPause,
		dynamicVolume: dynamicVolume,
		stopped:       true,
	}
}

// Len reports whether the loop currently counts as "occupying" the
// channel: 1 if a source is actively enqueued, 0 otherwise.
func (lp *LoopPlayer) Len() int {
	if lp.current != nil {
		return 1
	}
	return 0
}

// SetDucked pauses or resumes the loop on its own, independent of the
// channel's user-facing pause flag (flipped by PlayPause).
func (lp *LoopPlayer) SetDucked(v bool) {
	lp.duck.Store(v)
}

// Ducked reports the loop's own pause flag, as last set by SetDucked.
func (lp *LoopPlayer) Ducked() bool {
	return lp.duck.Load()
}

// ChangeLoop stops the old source, replaces the deque (shuffled once for
// start-order variety), and begins the first file.
func (lp *LoopPlayer) ChangeLoop(files []LoopFile) {
	if lp.current != nil {
		lp.current.ctrl.Stop()
		lp.current = nil
	}
	lp.stopped = false
	lp.deque = shuffleDeque(files)
	lp.appendFile()
}

// Stop ends the current source and empties the deque.
func (lp *LoopPlayer) Stop() {
	lp.stopped = true
	if lp.current != nil {
		lp.current.ctrl.Stop()
		lp.current = nil
	}
	lp.deque = nil
}

// Skip marks the current source for early termination; the deque still
// advances normally on the next Maintain since advancement is driven by
// end-of-source, which Skip also triggers.
func (lp *LoopPlayer) Skip() {
	if lp.current != nil {
		lp.current.ctrl.Skip()
	}
}

// Maintain polls for end-of-current-source and advances the deque. A
// playlist soundFile's remaining paths are drained before the outer deque
// rotates, so an .m3u/.pls entry plays back-to-back without affecting
// loop-rotation order.
func (lp *LoopPlayer) Maintain() {
	if lp.stopped {
		return
	}
	if lp.current == nil {
		// Every path of the previous deque entry failed to decode;
		// rotate past it so the loop never deadlocks on a bad entry.
		if len(lp.deque) > 0 {
			lp.deque = append(lp.deque[1:], lp.deque[0])
			lp.appendFile()
		}
		return
	}
	select {
	case <-lp.current.doneCh:
		lp.current = nil
		if len(lp.pendingPaths) > 0 {
			lp.playNextPending()
			return
		}
		if len(lp.deque) > 0 {
			lp.deque = append(lp.deque[1:], lp.deque[0])
		}
		lp.appendFile()
	default:
	}
}

func (lp *LoopPlayer) appendFile() {
	if len(lp.deque) == 0 {
		return
	}
	file := lp.deque[0]
	if len(file.Source.Paths) == 0 {
		return
	}
	lp.pendingPaths = append([]string{}, file.Source.Paths...)
	lp.playNextPending()
}

func (lp *LoopPlayer) playNextPending() {
	for len(lp.pendingPaths) > 0 {
		path := lp.pendingPaths[0]
		lp.pendingPaths = lp.pendingPaths[1:]

		file := lp.deque[0]
		balance := file.Balance
		if file.RandomBalance {
			balance = rand.Float64()*2 - 1
		}

		dec, err := decode.Open(path)
		if err != nil {
			logging.Warn("loop player: failed to decode file, skipping", "path", path, "error", err)
			continue
		}

		ctrl := control.NewSource(file.Amplification)
		rs := newRenderSource(dec, ctrl, balance, lp.channelVolume, lp.channelPause, lp.globalVolume, lp.globalPause, lp.dynamicVolume, &lp.duck)
		lp.mixer.AddNode(rs)
		lp.current = &activeLoopItem{ctrl: ctrl, doneCh: rs.doneCh}
		return
	}
	// every path in the playlist failed to decode; nothing left to play
	// for this deque entry until the next Maintain tick rotates it.
	lp.current = nil
}

// shuffleDeque performs a Fisher-Yates shuffle on both halves of files
// after a one-element rotation, giving loop start order some variety. With
// two or more files, files[0] lands in the second half and so is never the
// first to play.
func shuffleDeque(files []LoopFile) []LoopFile {
	if len(files) < 2 {
		out := make([]LoopFile, len(files))
		copy(out, files)
		return out
	}
	rotated := append(append([]LoopFile{}, files[1:]...), files[0])
	mid := len(rotated) / 2
	shuffleInPlace(rotated[:mid])
	shuffleInPlace(rotated[mid:])
	return rotated
}

func shuffleInPlace(s []LoopFile) {
	for i := len(s) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
