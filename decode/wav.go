// Package decode adapts on-disk audio files into in-memory buffers for the
// analysis core. It stands in for the external decoded-audio provider; the
// core itself never touches the filesystem.
package decode

import (
	"errors"
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/stemforge/stemscan/algorithms/filters"
	"github.com/stemforge/stemscan/audio"
	"github.com/stemforge/stemscan/logging"
)

// ErrInvalidWAV indicates the file is not a decodable WAV stream
var ErrInvalidWAV = errors.New("not a valid WAV file")

// WAVFile decodes a whole WAV file into a float64 buffer. Integer PCM is
// normalized to [-1, 1) by the source bit depth, and any DC offset is
// filtered out before the buffer reaches the analysis components.
func WAVFile(path string) (*audio.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}

	intBuf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if intBuf == nil || intBuf.Format == nil || len(intBuf.Data) == 0 {
		return nil, fmt.Errorf("%s: empty PCM payload: %w", path, ErrInvalidWAV)
	}

	bitDepth := int(decoder.BitDepth)
	buf, err := FromIntBuffer(intBuf, bitDepth)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	buf.PCM = filters.RemoveDC(buf.PCM, buf.Channels)

	logging.Debug("decoded WAV file", logging.Fields{
		"path":        path,
		"sample_rate": buf.SampleRate,
		"channels":    buf.Channels,
		"seconds":     buf.Seconds(),
	})

	return buf, nil
}

// FromIntBuffer converts a go-audio integer PCM buffer into a normalized
// float64 buffer. A non-positive bitDepth falls back to the buffer's source
// bit depth, then to 16.
func FromIntBuffer(intBuf *gaudio.IntBuffer, bitDepth int) (*audio.Buffer, error) {
	if intBuf == nil || intBuf.Format == nil {
		return nil, ErrInvalidWAV
	}

	if bitDepth <= 0 {
		bitDepth = intBuf.SourceBitDepth
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	pcm := make([]float64, len(intBuf.Data))
	for i, s := range intBuf.Data {
		pcm[i] = float64(s) / scale
	}

	return audio.NewBuffer(pcm, intBuf.Format.SampleRate, intBuf.Format.NumChannels)
}
