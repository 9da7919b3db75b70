package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dfsoundsense/soundsense-go/internal/errors"
)

type wavDecoder struct {
	file    *os.File
	dec     *wav.Decoder
	buf     *audio.IntBuffer
	format  Format
	maxAmp  float64
	pending []int // leftover decoded-but-unread samples
}

func openWav(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).Component("decode").Category(errors.CategoryAudioDecode).
			Context("path", path).Build()
	}
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		f.Close()
		return nil, errors.New(fmt.Errorf("not a valid wav file")).
			Component("decode").Category(errors.CategoryAudioDecode).Context("path", path).Build()
	}
	d.ReadInfo()

	bitDepth := d.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	maxAmp := float64(int64(1) << (bitDepth - 1))

	return &wavDecoder{
		file: f,
		dec:  d,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: int(d.NumChans), SampleRate: int(d.SampleRate)},
			Data:   make([]int, 4096),
		},
		format: Format{SampleRate: int(d.SampleRate), Channels: int(d.NumChans)},
		maxAmp: maxAmp,
	}, nil
}

func (w *wavDecoder) Format() Format { return w.format }

func (w *wavDecoder) Read(out []float32) (int, error) {
	n := 0
	for n < len(out) {
		if len(w.pending) == 0 {
			read, err := w.dec.PCMBuffer(w.buf)
			if err != nil && err != io.EOF {
				return n, err
			}
			if read == 0 {
				if n > 0 {
					return n, nil
				}
				return 0, io.EOF
			}
			w.pending = w.buf.Data[:read]
		}
		take := len(out) - n
		if take > len(w.pending) {
			take = len(w.pending)
		}
		for i := 0; i < take; i++ {
			out[n+i] = float32(float64(w.pending[i]) / w.maxAmp)
		}
		n += take
		w.pending = w.pending[take:]
	}
	return n, nil
}

func (w *wavDecoder) Close() error { return w.file.Close() }
