package spectral

import (
	"fmt"

	"github.com/stemforge/stemscan/algorithms/windowing"
)

// STFT computes frame-wise magnitude spectra for signal-change analysis
type STFT struct {
	fft *FFT
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{fft: NewFFT()}
}

// MagnitudeSpectrogram slices the signal into Hann-windowed frames of
// windowSize samples spaced hopSize apart and returns one magnitude spectrum
// per frame (windowSize/2+1 bins each). Trailing samples that do not fill a
// whole frame are dropped.
func (s *STFT) MagnitudeSpectrogram(signal []float64, windowSize, hopSize int) ([][]float64, error) {
	if windowSize <= 0 || hopSize <= 0 {
		return nil, fmt.Errorf("window size (%d) and hop size (%d) must be positive", windowSize, hopSize)
	}
	if len(signal) < windowSize {
		return [][]float64{}, nil
	}

	window := windowing.NewHann(windowSize)
	numFrames := (len(signal)-windowSize)/hopSize + 1

	spectrogram := make([][]float64, numFrames)
	for i := range numFrames {
		start := i * hopSize
		frame := window.Frame(signal[start : start+windowSize])
		spectrogram[i] = s.fft.Magnitude(frame)
	}

	return spectrogram, nil
}
