// Package soundchannel implements the C5 sound channel: one loop player
// and one oneshot player coupled under shared local volume/pause, a delay
// counter, and a play-type policy.
package soundchannel

import (
	"strings"

	"github.com/dfsoundsense/soundsense-go/internal/control"
	"github.com/dfsoundsense/soundsense-go/internal/mixer"
	"github.com/dfsoundsense/soundsense-go/internal/player"
	"github.com/dfsoundsense/soundsense-go/internal/soundmodel"
)

// Channel is the C5 runtime state for one named channel.
type Channel struct {
	Name string

	Volume    *control.Volume
	Pause     *control.Pause
	PlayType  soundmodel.PlayType
	Threshold int

	loop          *player.LoopPlayer
	oneshot       *player.OneshotPlayer
	dynamicVolume *control.Volume

	delayMS int
}

// New constructs a channel. Channels literally named "weather" or "music"
// default to single-eager even before any explicit <channelSetting> is
// applied, matching the original soundpack engine's behavior (DESIGN.md
// Open Question 4); any other name defaults to "all".
func New(name string, m *mixer.Mixer, globalVolume *control.Volume, globalPause *control.Pause) *Channel {
	c := &Channel{
		Name:      name,
		Volume:    control.NewVolume(1.0),
		Pause:     &control.Pause{},
		Threshold: 4,
	}
	switch strings.ToLower(name) {
	case "weather", "music":
		c.PlayType = soundmodel.PlaySingleEager
	default:
		c.PlayType = soundmodel.PlayAll
	}

	dynamicVolume := control.NewVolume(1.0)
	c.loop = player.NewLoopPlayer(m, c.Volume, c.Pause, globalVolume, globalPause, dynamicVolume)
	c.oneshot = player.NewOneshotPlayer(m, c.Volume, c.Pause, globalVolume, globalPause)
	c.dynamicVolume = dynamicVolume
	return c
}

// dynamicVolume backs the loop player's ducking multiplier; stored on the
// channel so AddOneshot can reset/lower it.
func (c *Channel) setDynamicVolume(v float64) {
	c.dynamicVolume.Store(v)
}

// Len is the channel's occupancy count: oneshots plus 0/1 for the loop.
func (c *Channel) Len() int {
	return c.oneshot.Len() + c.loop.Len()
}

// Maintain runs the load-bearing per-tick order: delay tick, then oneshot
// reap, then loop play/pause decision, then loop advance. Reordering this
// breaks the "same tick that finishes an oneshot re-enables the loop"
// guarantee.
func (c *Channel) Maintain(dtMS int) {
	c.delayMS -= dtMS
	if c.delayMS < 0 {
		c.delayMS = 0
	}

	c.oneshot.Maintain()

	if c.oneshot.Len() == 0 && c.delayMS == 0 {
		c.loop.SetDucked(false)
		c.setDynamicVolume(1.0)
	} else {
		c.loop.SetDucked(true)
	}

	c.loop.Maintain()
}

// ChangeLoop replaces the channel's loop playlist, stopping any in-flight
// oneshot first for single-play channel types.
func (c *Channel) ChangeLoop(files []player.LoopFile, delayMS int) {
	if c.PlayType == soundmodel.PlaySingleLazy && c.Len() > 0 {
		return
	}
	if c.PlayType == soundmodel.PlaySingleEager {
		c.oneshot.Stop()
	}
	c.loop.ChangeLoop(files)
	c.delayMS = delayMS
	c.Maintain(0)
}

// StopLoop stops the loop and arms the delay.
func (c *Channel) StopLoop(delayMS int) {
	c.loop.Stop()
	c.delayMS = delayMS
}

// AddOneshot enqueues a one-shot sound, ducking any already-playing
// oneshots on this channel.
func (c *Channel) AddOneshot(path string, amplification, balance float64, delayMS int) {
	if c.PlayType == soundmodel.PlaySingleLazy && c.Len() > 0 {
		return
	}
	if c.PlayType == soundmodel.PlaySingleEager {
		c.loop.SetDucked(true)
		c.oneshot.Stop()
	}
	c.oneshot.Duck(0.5)
	c.setDynamicVolume(0.25)

	c.oneshot.AddSource(path, amplification, balance)
	c.delayMS = delayMS
}

// Skip ends the current loop file early and stops any live oneshots.
func (c *Channel) Skip() {
	c.loop.Skip()
	c.oneshot.Stop()
}

// PlayPause flips the channel's pause flag and returns the new state.
func (c *Channel) PlayPause() bool {
	return c.Pause.Flip()
}

// Finish stops both players, releasing all audio for this channel.
func (c *Channel) Finish() {
	c.loop.Stop()
	c.oneshot.Stop()
	c.oneshot.Maintain()
}
