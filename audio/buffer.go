package audio

import (
	"fmt"
	"time"
)

// Buffer represents fully decoded PCM audio held in memory. Samples are
// interleaved when Channels > 1. A Buffer is immutable once produced by the
// decode layer; all analysis components read it without modification.
type Buffer struct {
	PCM        []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
	Channels   int       `json:"channels"`
}

// NewBuffer creates a buffer after validating the basic PCM contract.
func NewBuffer(pcm []float64, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	if len(pcm)%channels != 0 {
		return nil, fmt.Errorf("PCM length (%d) is not a multiple of channel count (%d)", len(pcm), channels)
	}

	return &Buffer{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// NumFrames returns the number of sample frames (samples per channel).
func (b *Buffer) NumFrames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.PCM) / b.Channels
}

// Duration returns the buffer length as a time.Duration.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.NumFrames()) / float64(b.SampleRate) * float64(time.Second))
}

// Seconds returns the buffer length in seconds.
func (b *Buffer) Seconds() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.NumFrames()) / float64(b.SampleRate)
}

// Mono returns a single-channel view of the buffer. Multi-channel audio is
// downmixed by averaging the channels of each frame; mono audio is returned
// as-is without copying.
func (b *Buffer) Mono() []float64 {
	if b.Channels == 1 {
		return b.PCM
	}

	frames := b.NumFrames()
	mono := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range b.Channels {
			sum += b.PCM[i*b.Channels+c]
		}
		mono[i] = sum / float64(b.Channels)
	}

	return mono
}

// SliceSeconds extracts the mono samples covering [start, end) seconds. The
// range is clamped to the buffer bounds; an empty or inverted range returns
// an empty slice rather than an error.
func (b *Buffer) SliceSeconds(start, end float64) []float64 {
	mono := b.Mono()

	startIdx := int(start * float64(b.SampleRate))
	endIdx := int(end * float64(b.SampleRate))

	if startIdx < 0 {
		startIdx = 0
	}
	if endIdx > len(mono) {
		endIdx = len(mono)
	}
	if startIdx >= endIdx {
		return []float64{}
	}

	return mono[startIdx:endIdx]
}
