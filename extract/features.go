package extract

import (
	"github.com/stemforge/stemscan/algorithms/spectral"
	"github.com/stemforge/stemscan/algorithms/stats"
	"github.com/stemforge/stemscan/algorithms/windowing"
	"github.com/stemforge/stemscan/audio"
)

// FeatureExtractorParams contains parameters for beat-aligned feature
// extraction
type FeatureExtractorParams struct {
	FFTSize   int       `json:"fft_size"`
	BandEdges []float64 `json:"band_edges"` // Log-spaced band boundaries, Hz
	// FallbackWindow bounds the final onset's window when there is no next
	// onset: one beat at 120 BPM.
	FallbackWindow float64 `json:"fallback_window"`
}

// DefaultFeatureExtractorParams returns the default extraction parameters:
// 8 log-spaced bands from 20 Hz to 16 kHz over a 1024-point FFT.
func DefaultFeatureExtractorParams() FeatureExtractorParams {
	return FeatureExtractorParams{
		FFTSize:        1024,
		BandEdges:      []float64{20, 63, 200, 500, 1000, 2000, 4000, 8000, 16000},
		FallbackWindow: 0.5,
	}
}

// FeatureExtractor turns beat-aligned windows of a stem into compact
// spectral feature vectors: one L2-normalized 8-band energy vector per beat
// onset, describing the window from that onset to the next.
type FeatureExtractor struct {
	params FeatureExtractorParams
	fft    *spectral.FFT
	window *windowing.Hann
}

// NewFeatureExtractor creates an extractor with default parameters
func NewFeatureExtractor() *FeatureExtractor {
	return NewFeatureExtractorWithParams(DefaultFeatureExtractorParams())
}

// NewFeatureExtractorWithParams creates an extractor with custom parameters
func NewFeatureExtractorWithParams(params FeatureExtractorParams) *FeatureExtractor {
	return &FeatureExtractor{
		params: params,
		fft:    spectral.NewFFT(),
		window: windowing.NewHann(params.FFTSize),
	}
}

// NumBands returns the dimensionality of the produced vectors
func (fe *FeatureExtractor) NumBands() int {
	return len(fe.params.BandEdges) - 1
}

// ExtractSeries produces one feature vector per onset, aligned 1:1 with the
// onset sequence. Windows that fall outside the buffer produce an all-zero
// vector instead of failing the batch.
func (fe *FeatureExtractor) ExtractSeries(buf *audio.Buffer, onsets []float64) [][]float64 {
	mono := buf.Mono()
	sampleRate := buf.SampleRate

	series := make([][]float64, len(onsets))
	for i, onset := range onsets {
		end := onset + fe.params.FallbackWindow
		if i < len(onsets)-1 {
			end = onsets[i+1]
		}
		series[i] = fe.extractWindow(mono, sampleRate, onset, end)
	}

	return series
}

// extractWindow computes the band-energy vector for [start, end) seconds
func (fe *FeatureExtractor) extractWindow(mono []float64, sampleRate int, start, end float64) []float64 {
	vector := make([]float64, fe.NumBands())

	samples := sliceSeconds(mono, sampleRate, start, end)
	if len(samples) == 0 {
		// Onset beyond buffer bounds: zero vector, not a failure
		return vector
	}

	frame := fe.window.Frame(samples)
	magnitude := fe.fft.Magnitude(frame)

	bands := spectral.NewBandAnalyzer(sampleRate, fe.params.FFTSize)
	energies := bands.BandEnergies(magnitude, fe.params.BandEdges)
	copy(vector, energies)

	return stats.L2Normalize(vector)
}
