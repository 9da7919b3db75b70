package soundchannel

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfsoundsense/soundsense-go/internal/control"
	"github.com/dfsoundsense/soundsense-go/internal/mixer"
	"github.com/dfsoundsense/soundsense-go/internal/player"
	"github.com/dfsoundsense/soundsense-go/internal/soundmodel"
)

// writeTestWav writes a minimal valid mono 16-bit PCM wav file with the
// given samples, returning its path.
func writeTestWav(t *testing.T, dir, name string, samples []int16) string {
	t.Helper()
	path := filepath.Join(dir, name)

	dataSize := len(samples) * 2
	buf := make([]byte, 0, 44+dataSize)

	buf = append(buf, "RIFF"...)
	buf = appendU32(buf, uint32(36+dataSize))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = appendU32(buf, 16)
	buf = appendU16(buf, 1)  // PCM
	buf = appendU16(buf, 1)  // mono
	buf = appendU32(buf, 44100)
	buf = appendU32(buf, 44100*2)
	buf = appendU16(buf, 2)
	buf = appendU16(buf, 16)

	buf = append(buf, "data"...)
	buf = appendU32(buf, uint32(dataSize))
	for _, s := range samples {
		buf = appendU16(buf, uint16(s))
	}

	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func appendU32(buf []byte, v uint32) []byte {
	tmp := make([]byte, 4)
	binary.LittleEndian.PutUint32(tmp, v)
	return append(buf, tmp...)
}

func appendU16(buf []byte, v uint16) []byte {
	tmp := make([]byte, 2)
	binary.LittleEndian.PutUint16(tmp, v)
	return append(buf, tmp...)
}

func newTestChannel(t *testing.T, name string) *Channel {
	t.Helper()
	return New(name, &mixer.Mixer{}, control.NewVolume(1.0), &control.Pause{})
}

func samples(n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = 1000
	}
	return s
}

func TestNewDefaultsWeatherAndMusicToSingleEager(t *testing.T) {
	weather := newTestChannel(t, "weather")
	assert.Equal(t, soundmodel.PlaySingleEager, weather.PlayType)

	music := newTestChannel(t, "Music")
	assert.Equal(t, soundmodel.PlaySingleEager, music.PlayType)

	misc := newTestChannel(t, "misc")
	assert.Equal(t, soundmodel.PlayAll, misc.PlayType)
}

func TestAddOneshotOccupiesChannelUntilReaped(t *testing.T) {
	dir := t.TempDir()
	path := writeTestWav(t, dir, "a.wav", samples(8))

	c := newTestChannel(t, "misc")
	c.AddOneshot(path, 1.0, 0, 0)
	assert.Equal(t, 1, c.Len())
}

func TestChangeLoopPlaySingleEagerStopsOneshotFirst(t *testing.T) {
	dir := t.TempDir()
	oneshotPath := writeTestWav(t, dir, "bark.wav", samples(8))
	loopPath := writeTestWav(t, dir, "rain.wav", samples(8))

	c := newTestChannel(t, "weather")
	c.AddOneshot(oneshotPath, 1.0, 0, 0)
	require.Equal(t, 1, c.Len())

	c.ChangeLoop([]player.LoopFile{
		{Source: soundmodel.SoundSource{Paths: []string{loopPath}}, Amplification: 1.0},
	}, 0)

	assert.Equal(t, 1, c.loop.Len(), "loop starts immediately once the existing oneshot is told to stop")
}

func TestChangeLoopPlaySingleLazySkipsWhenOccupied(t *testing.T) {
	dir := t.TempDir()
	oneshotPath := writeTestWav(t, dir, "bark.wav", samples(8))
	loopPath := writeTestWav(t, dir, "rain.wav", samples(8))

	c := newTestChannel(t, "misc")
	c.PlayType = soundmodel.PlaySingleLazy
	c.AddOneshot(oneshotPath, 1.0, 0, 0)
	require.Equal(t, 1, c.Len())

	c.ChangeLoop([]player.LoopFile{
		{Source: soundmodel.SoundSource{Paths: []string{loopPath}}, Amplification: 1.0},
	}, 0)

	assert.Equal(t, 0, c.loop.Len(), "lazy channel already occupied: new loop must not start")
}

func TestMaintainPausesLoopWhileOneshotActive(t *testing.T) {
	dir := t.TempDir()
	oneshotPath := writeTestWav(t, dir, "bark.wav", samples(8))
	loopPath := writeTestWav(t, dir, "rain.wav", samples(8))

	c := newTestChannel(t, "misc")
	c.ChangeLoop([]player.LoopFile{
		{Source: soundmodel.SoundSource{Paths: []string{loopPath}}, Amplification: 1.0},
	}, 0)
	c.AddOneshot(oneshotPath, 1.0, 0, 0)
	c.Maintain(10)
	assert.True(t, c.loop.Ducked(), "loop ducked while oneshot occupies the channel")
	assert.False(t, c.Pause.Load(), "ducking must not touch the channel's user-facing pause flag")
}

func TestMaintainResumesLoopOnceChannelIsIdle(t *testing.T) {
	loopPath := writeTestWav(t, t.TempDir(), "rain.wav", samples(8))

	c := newTestChannel(t, "misc")
	c.ChangeLoop([]player.LoopFile{
		{Source: soundmodel.SoundSource{Paths: []string{loopPath}}, Amplification: 1.0},
	}, 0)
	c.Maintain(10)
	assert.False(t, c.loop.Ducked(), "no oneshot and no pending delay: loop runs unducked")
}

func TestSkipOnIdleChannelDoesNotPanic(t *testing.T) {
	c := newTestChannel(t, "misc")
	assert.NotPanics(t, func() { c.Skip() })
}

func TestPlayPauseFlipsChannelPauseFlag(t *testing.T) {
	c := newTestChannel(t, "misc")
	assert.False(t, c.Pause.Load())

	got := c.PlayPause()
	assert.True(t, got)
	assert.True(t, c.Pause.Load())
}

func TestPlayPauseSurvivesMaintainWhileOneshotDucksLoop(t *testing.T) {
	dir := t.TempDir()
	oneshotPath := writeTestWav(t, dir, "bark.wav", samples(8))

	c := newTestChannel(t, "misc")
	got := c.PlayPause()
	require.True(t, got)

	c.AddOneshot(oneshotPath, 1.0, 0, 0)
	c.Maintain(10)

	assert.True(t, c.Pause.Load(), "user pause must not be cleared by a Maintain tick that also ducks the loop")
}

func TestFinishStopsLoopImmediately(t *testing.T) {
	loopPath := writeTestWav(t, t.TempDir(), "rain.wav", samples(8))

	c := newTestChannel(t, "misc")
	c.ChangeLoop([]player.LoopFile{
		{Source: soundmodel.SoundSource{Paths: []string{loopPath}}, Amplification: 1.0},
	}, 0)
	require.Equal(t, 1, c.loop.Len())

	c.Finish()
	assert.Equal(t, 0, c.loop.Len(), "finish tears the loop down without waiting for a render tick")
}
