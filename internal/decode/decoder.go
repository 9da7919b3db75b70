// Package decode wraps concrete audio file decoders behind a small,
// format-agnostic interface, dispatching to two concrete backends (wav,
// flac) by file extension.
package decode

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dfsoundsense/soundsense-go/internal/errors"
)

// Format describes the PCM shape a Decoder yields.
type Format struct {
	SampleRate int
	Channels   int // 1 (mono) or 2 (stereo)
}

// Decoder yields interleaved float32 samples in [-1, 1] at its own Format.
type Decoder interface {
	Format() Format
	// Read fills buf with interleaved samples and returns how many were
	// written. It returns io.EOF (wrapped or bare) once exhausted.
	Read(buf []float32) (n int, err error)
	Close() error
}

// Open dispatches to a concrete decoder backend based on file extension.
func Open(path string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return openWav(path)
	case ".flac":
		return openFlac(path)
	default:
		return nil, errors.New(fmt.Errorf("unsupported audio format %q", filepath.Ext(path))).
			Component("decode").
			Category(errors.CategoryAudioDecode).
			Context("path", path).
			Build()
	}
}
