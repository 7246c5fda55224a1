package temporal

import (
	"math"

	"github.com/stemforge/stemscan/algorithms/spectral"
	"github.com/stemforge/stemscan/audio"
	"github.com/stemforge/stemscan/logging"
)

// OnsetDetectorParams contains parameters for spectral-flux onset detection
type OnsetDetectorParams struct {
	WindowSize  int     `json:"window_size"`
	HopSize     int     `json:"hop_size"`
	MinInterval float64 `json:"min_interval"` // Min spacing between onsets, seconds
	ThresholdK  float64 `json:"threshold_k"`  // Std-dev multiplier over mean flux
}

// DefaultOnsetDetectorParams returns the default onset detection parameters
func DefaultOnsetDetectorParams() OnsetDetectorParams {
	return OnsetDetectorParams{
		WindowSize:  1024,
		HopSize:     512,
		MinInterval: 0.05,
		ThresholdK:  1.5,
	}
}

// OnsetDetector locates note and percussion onsets by picking peaks of the
// half-wave rectified spectral flux. It stands in when no external onset
// tracker output is supplied.
type OnsetDetector struct {
	params OnsetDetectorParams
	stft   *spectral.STFT
	flux   *spectral.SpectralFlux
	logger logging.Logger
}

// NewOnsetDetector creates an onset detector with default parameters
func NewOnsetDetector() *OnsetDetector {
	return NewOnsetDetectorWithParams(DefaultOnsetDetectorParams())
}

// NewOnsetDetectorWithParams creates an onset detector with custom parameters
func NewOnsetDetectorWithParams(params OnsetDetectorParams) *OnsetDetector {
	return &OnsetDetector{
		params: params,
		stft:   spectral.NewSTFT(),
		flux:   spectral.NewSpectralFlux(),
		logger: logging.WithFields(logging.Fields{
			"component": "onset_detector",
		}),
	}
}

// Detect returns onset times in seconds, ascending. The flux threshold
// adapts to the track: mean plus ThresholdK standard deviations.
func (od *OnsetDetector) Detect(buf *audio.Buffer) []float64 {
	if buf == nil || len(buf.PCM) == 0 {
		return []float64{}
	}

	spectrogram, err := od.stft.MagnitudeSpectrogram(buf.Mono(), od.params.WindowSize, od.params.HopSize)
	if err != nil || len(spectrogram) < 2 {
		return []float64{}
	}

	flux := od.flux.Compute(spectrogram)
	threshold := adaptiveThreshold(flux, od.params.ThresholdK)

	secondsPerHop := float64(od.params.HopSize) / float64(buf.SampleRate)
	minIntervalFrames := int(od.params.MinInterval / secondsPerHop)

	onsets := make([]float64, 0)
	lastPeak := -minIntervalFrames
	for i := 1; i < len(flux)-1; i++ {
		if flux[i] <= flux[i-1] || flux[i] <= flux[i+1] {
			continue
		}
		if flux[i] < threshold || i-lastPeak < minIntervalFrames {
			continue
		}
		// Flux entry i compares spectrogram frames i and i+1; the onset
		// lands at frame i+1.
		onsets = append(onsets, float64(i+1)*secondsPerHop)
		lastPeak = i
	}

	od.logger.Debug("onset detection complete", logging.Fields{
		"onsets":    len(onsets),
		"threshold": threshold,
	})

	return onsets
}

// adaptiveThreshold returns mean + k standard deviations of the flux curve
func adaptiveThreshold(flux []float64, k float64) float64 {
	if len(flux) == 0 {
		return 0.0
	}

	mean := 0.0
	for _, v := range flux {
		mean += v
	}
	mean /= float64(len(flux))

	variance := 0.0
	for _, v := range flux {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(flux))

	return mean + k*math.Sqrt(variance)
}
