package extract

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemforge/stemscan/audio"
)

func TestExtractSeriesAlignment(t *testing.T) {
	buf := toneBuffer(t, 44100, 4.0, 440.0)
	extractor := NewFeatureExtractor()

	onsets := []float64{0.0, 0.5, 1.0, 1.5, 2.0}
	series := extractor.ExtractSeries(buf, onsets)

	require.Len(t, series, len(onsets), "one vector per onset")
	for i, vec := range series {
		assert.Len(t, vec, extractor.NumBands(), "vector %d dimensionality", i)
	}
}

func TestExtractSeriesUnitNorm(t *testing.T) {
	buf := toneBuffer(t, 44100, 2.0, 440.0)
	extractor := NewFeatureExtractor()

	series := extractor.ExtractSeries(buf, []float64{0.0, 1.0})
	for i, vec := range series {
		norm := 0.0
		for _, v := range vec {
			norm += v * v
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9, "vector %d should be unit length", i)
	}
}

func TestExtractSeriesOutOfBoundsYieldsZeroVector(t *testing.T) {
	buf := toneBuffer(t, 44100, 1.0, 440.0)
	extractor := NewFeatureExtractor()

	series := extractor.ExtractSeries(buf, []float64{0.0, 5.0})
	require.Len(t, series, 2)
	assert.Equal(t, make([]float64, extractor.NumBands()), series[1])
}

func TestExtractSeriesBandPlacement(t *testing.T) {
	// 440 Hz falls in the 200-500 Hz band (index 2 of the default edges)
	buf := toneBuffer(t, 44100, 1.0, 440.0)
	extractor := NewFeatureExtractor()

	series := extractor.ExtractSeries(buf, []float64{0.0})
	require.Len(t, series, 1)

	vec := series[0]
	maxIdx := 0
	for i, v := range vec {
		if v > vec[maxIdx] {
			maxIdx = i
		}
	}
	assert.Equal(t, 2, maxIdx)
}

func TestExtractSeriesSilenceIsZeroVector(t *testing.T) {
	pcm := make([]float64, 44100)
	buf, err := audio.NewBuffer(pcm, 44100, 1)
	require.NoError(t, err)

	series := NewFeatureExtractor().ExtractSeries(buf, []float64{0.0})
	require.Len(t, series, 1)

	// Near-zero energy is left unnormalized rather than blown up
	for _, v := range series[0] {
		assert.Less(t, v, 1e-6)
	}
}
