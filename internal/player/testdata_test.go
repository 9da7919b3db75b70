package player

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTestWav writes a minimal valid mono 16-bit PCM wav file, returning
// its path. Used across this package's tests in place of a fixture binary.
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
	buf = appendU16(buf, 1)
	buf = appendU16(buf, 1)
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

func testSamples(n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = 1000
	}
	return s
}
