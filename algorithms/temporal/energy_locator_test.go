package temporal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemforge/stemscan/audio"
)

const testSampleRate = 44100

// burstTrack builds a silent track with a sine burst of the given amplitude
// over [burstStart, burstStart+burstLen) seconds
func burstTrack(t *testing.T, totalSeconds, burstStart, burstLen, amplitude float64) *audio.Buffer {
	t.Helper()

	pcm := make([]float64, int(totalSeconds*testSampleRate))
	start := int(burstStart * testSampleRate)
	end := int((burstStart + burstLen) * testSampleRate)
	for i := start; i < end && i < len(pcm); i++ {
		pcm[i] = amplitude * math.Sin(2*math.Pi*440*float64(i)/testSampleRate)
	}

	buf, err := audio.NewBuffer(pcm, testSampleRate, 1)
	require.NoError(t, err)
	return buf
}

func TestLocateFindsBurst(t *testing.T) {
	locator := NewEnergyLocator()
	buf := burstTrack(t, 60.0, 10.0, 4.0, 0.9)

	onset := locator.Locate(buf)
	assert.InDelta(t, 10.0, onset, DefaultEnergyLocatorParams().ChunkDuration,
		"onset must fall within one chunk of the burst start")
}

func TestLocateSilenceDefaultsToZero(t *testing.T) {
	locator := NewEnergyLocator()
	buf := burstTrack(t, 20.0, 0.0, 0.0, 0.0)

	assert.Equal(t, 0.0, locator.Locate(buf))
}

func TestLocateShorterThanWindow(t *testing.T) {
	// A 2-second track is shorter than the 4-second scoring window; the
	// locator operates on what is available instead of failing
	locator := NewEnergyLocator()
	buf := burstTrack(t, 2.0, 0.5, 1.0, 0.8)

	onset := locator.Locate(buf)
	assert.GreaterOrEqual(t, onset, 0.0)
	assert.Less(t, onset, 2.0)
}

func TestLocateNilBuffer(t *testing.T) {
	locator := NewEnergyLocator()
	assert.Equal(t, 0.0, locator.Locate(nil))
}

func TestLocateMultiChannelPeaks(t *testing.T) {
	// Burst only on the right channel must still dominate
	frames := 30 * testSampleRate
	pcm := make([]float64, frames*2)
	start := 5 * testSampleRate
	for i := start; i < start+4*testSampleRate; i++ {
		pcm[i*2+1] = 0.9
	}

	buf, err := audio.NewBuffer(pcm, testSampleRate, 2)
	require.NoError(t, err)

	locator := NewEnergyLocator()
	assert.InDelta(t, 5.0, locator.Locate(buf), DefaultEnergyLocatorParams().ChunkDuration)
}
