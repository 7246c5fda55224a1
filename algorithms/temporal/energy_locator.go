package temporal

import (
	"gonum.org/v1/gonum/floats"

	"github.com/stemforge/stemscan/audio"
	"github.com/stemforge/stemscan/logging"
)

// EnergyLocatorParams contains parameters for energy onset location
type EnergyLocatorParams struct {
	WindowDuration float64 `json:"window_duration"` // Span to score, seconds
	ChunkDuration  float64 `json:"chunk_duration"`  // Peak-measurement granularity, seconds
}

// DefaultEnergyLocatorParams returns the default locator parameters
func DefaultEnergyLocatorParams() EnergyLocatorParams {
	return EnergyLocatorParams{
		WindowDuration: 4.0,
		ChunkDuration:  0.25,
	}
}

// EnergyLocator finds the start of the most energetic sustained section of a
// track: the WindowDuration-long span with the highest average chunk peak.
// Used to skip intros and count-ins before extracting hits and loops.
type EnergyLocator struct {
	params EnergyLocatorParams
	logger logging.Logger
}

// NewEnergyLocator creates a locator with default parameters
func NewEnergyLocator() *EnergyLocator {
	return NewEnergyLocatorWithParams(DefaultEnergyLocatorParams())
}

// NewEnergyLocatorWithParams creates a locator with custom parameters
func NewEnergyLocatorWithParams(params EnergyLocatorParams) *EnergyLocator {
	return &EnergyLocator{
		params: params,
		logger: logging.WithFields(logging.Fields{
			"component": "energy_locator",
		}),
	}
}

// Locate returns the start time (seconds) of the loudest sustained window.
// An unusable buffer degrades to 0.0 with a warning; callers treat that as
// "unknown onset, start from the beginning".
func (el *EnergyLocator) Locate(buf *audio.Buffer) float64 {
	if buf == nil || len(buf.PCM) == 0 || buf.SampleRate <= 0 {
		el.logger.Warn("unusable buffer, defaulting energy onset to 0.0")
		return 0.0
	}

	peaks := el.chunkPeaks(buf)
	if len(peaks) == 0 {
		return 0.0
	}

	chunksPerWindow := int(el.params.WindowDuration / el.params.ChunkDuration)
	if chunksPerWindow < 1 {
		chunksPerWindow = 1
	}
	if chunksPerWindow > len(peaks) {
		// Shorter track than one window: score whatever is available
		chunksPerWindow = len(peaks)
	}

	bestStart := 0
	bestMean := -1.0
	for start := 0; start+chunksPerWindow <= len(peaks); start++ {
		mean := floats.Sum(peaks[start:start+chunksPerWindow]) / float64(chunksPerWindow)
		if mean > bestMean {
			bestMean = mean
			bestStart = start
		}
	}

	onset := float64(bestStart) * el.params.ChunkDuration
	el.logger.Debug("located energy onset", logging.Fields{
		"onset_seconds": onset,
		"window_mean":   bestMean,
		"chunks":        len(peaks),
	})

	return onset
}

// chunkPeaks splits the buffer into non-overlapping ChunkDuration chunks and
// returns the max absolute sample value per chunk, across all channels. The
// trailing partial chunk is included.
func (el *EnergyLocator) chunkPeaks(buf *audio.Buffer) []float64 {
	samplesPerChunk := int(el.params.ChunkDuration*float64(buf.SampleRate)) * buf.Channels
	if samplesPerChunk <= 0 {
		return []float64{}
	}

	numChunks := (len(buf.PCM) + samplesPerChunk - 1) / samplesPerChunk
	peaks := make([]float64, numChunks)

	for c := range numChunks {
		start := c * samplesPerChunk
		end := start + samplesPerChunk
		if end > len(buf.PCM) {
			end = len(buf.PCM)
		}

		peak := 0.0
		for _, s := range buf.PCM[start:end] {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
		peaks[c] = peak
	}

	return peaks
}
