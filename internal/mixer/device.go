// Package mixer owns the single shared malgo playback device and the list
// of active render Nodes (loop-player current sources, oneshots). Go/malgo
// has no automatic per-stream device mixer the way the original Rust
// implementation's rodio backend does, so a central additive mixer plays
// that role here; see DESIGN.md Open Question 5.
package mixer

import (
	"math"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/dfsoundsense/soundsense-go/internal/errors"
)

const (
	SampleRate = 44100
	Channels   = 2
)

// Mixer is the sole consumer of audio device time; every SoundChannel and
// oneshot registers a Node with it instead of opening its own device.
type Mixer struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu    sync.Mutex
	nodes []Node

	scratch []float32
}

// New allocates a malgo context and opens (but does not start) the shared
// playback device.
func New() (*Mixer, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(err).Component("mixer").Category(errors.CategoryAudioDevice).Build()
	}

	m := &Mixer{ctx: ctx}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = Channels
	deviceConfig.SampleRate = SampleRate

	callbacks := malgo.DeviceCallbacks{
		Data: m.onSamples,
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		ctx.Free()
		return nil, errors.New(err).Component("mixer").Category(errors.CategoryAudioDevice).Build()
	}
	m.device = device
	return m, nil
}

// Start begins pulling samples into the audio backend.
func (m *Mixer) Start() error {
	if err := m.device.Start(); err != nil {
		return errors.New(err).Component("mixer").Category(errors.CategoryAudioDevice).Build()
	}
	return nil
}

// Close stops the device and releases the malgo context.
func (m *Mixer) Close() error {
	m.device.Uninit()
	m.ctx.Uninit()
	return m.ctx.Free()
}

// AddNode registers a new render participant.
func (m *Mixer) AddNode(n Node) {
	m.mu.Lock()
	m.nodes = append(m.nodes, n)
	m.mu.Unlock()
}

// onSamples is the malgo data callback (D2). It mixes every active node
// additively into pOutputSample and drops nodes that report exhaustion.
func (m *Mixer) onSamples(pOutputSample, pInputSample []byte, frameCount uint32) {
	nSamples := int(frameCount) * Channels
	if cap(m.scratch) < nSamples {
		m.scratch = make([]float32, nSamples)
	}
	mix := m.scratch[:nSamples]
	for i := range mix {
		mix[i] = 0
	}

	m.mu.Lock()
	live := m.nodes[:0]
	for _, n := range m.nodes {
		buf := make([]float32, nSamples)
		active := n.Render(buf)
		for i, s := range buf {
			mix[i] += s
		}
		if active {
			live = append(live, n)
		}
	}
	m.nodes = live
	m.mu.Unlock()

	writeF32LE(pOutputSample, mix)
}

func writeF32LE(dst []byte, samples []float32) {
	n := len(samples)
	if len(dst) < n*4 {
		n = len(dst) / 4
	}
	for i := 0; i < n; i++ {
		bits := math.Float32bits(samples[i])
		dst[i*4+0] = byte(bits)
		dst[i*4+1] = byte(bits >> 8)
		dst[i*4+2] = byte(bits >> 16)
		dst[i*4+3] = byte(bits >> 24)
	}
	for i := n * 4; i < len(dst); i++ {
		dst[i] = 0
	}
}
