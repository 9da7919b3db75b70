package decode

import (
	"io"
	"os"

	"github.com/tphakala/flac"

	"github.com/dfsoundsense/soundsense-go/internal/errors"
)

type flacDecoder struct {
	file    *os.File
	stream  *flac.Stream
	format  Format
	maxAmp  float64
	pending []float32
}

func openFlac(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).Component("decode").Category(errors.CategoryAudioDecode).
			Context("path", path).Build()
	}
	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, errors.New(err).Component("decode").Category(errors.CategoryAudioDecode).
			Context("path", path).Build()
	}

	bps := stream.Info.BitsPerSample
	if bps == 0 {
		bps = 16
	}
	maxAmp := float64(int64(1) << (bps - 1))

	return &flacDecoder{
		file:   f,
		stream: stream,
		format: Format{SampleRate: int(stream.Info.SampleRate), Channels: int(stream.Info.NChannels)},
		maxAmp: maxAmp,
	}, nil
}

func (d *flacDecoder) Format() Format { return d.format }

func (d *flacDecoder) Read(out []float32) (int, error) {
	n := 0
	for n < len(out) {
		if len(d.pending) == 0 {
			if err := d.fillNextFrame(); err != nil {
				if n > 0 {
					return n, nil
				}
				return 0, err
			}
		}
		take := len(out) - n
		if take > len(d.pending) {
			take = len(d.pending)
		}
		copy(out[n:n+take], d.pending[:take])
		n += take
		d.pending = d.pending[take:]
	}
	return n, nil
}

// fillNextFrame decodes one FLAC frame and interleaves its subframes'
// samples into d.pending, normalized to [-1, 1].
func (d *flacDecoder) fillNextFrame() error {
	fr, err := d.stream.ParseNext()
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return err
	}
	nChan := len(fr.Subframes)
	if nChan == 0 {
		return io.EOF
	}
	blockSize := int(fr.BlockSize)
	buf := make([]float32, blockSize*nChan)
	for ch := 0; ch < nChan; ch++ {
		samples := fr.Subframes[ch].Samples
		for i := 0; i < blockSize && i < len(samples); i++ {
			buf[i*nChan+ch] = float32(float64(samples[i]) / d.maxAmp)
		}
	}
	d.pending = buf
	return nil
}

func (d *flacDecoder) Close() error { return d.file.Close() }
