package spectral

// BandAnalyzer sums magnitude-spectrum energy into frequency bands and
// computes band-limited spectral centroids. It maps bins of an fftSize-point
// real FFT to frequencies via bin*sampleRate/fftSize.
type BandAnalyzer struct {
	sampleRate int
	fftSize    int
}

// NewBandAnalyzer creates a band analyzer for spectra produced by an
// fftSize-point FFT at the given sample rate.
func NewBandAnalyzer(sampleRate, fftSize int) *BandAnalyzer {
	return &BandAnalyzer{
		sampleRate: sampleRate,
		fftSize:    fftSize,
	}
}

// BinFrequency returns the center frequency of an FFT bin
func (ba *BandAnalyzer) BinFrequency(bin int) float64 {
	return float64(bin) * float64(ba.sampleRate) / float64(ba.fftSize)
}

// BandEnergy sums the magnitude energy of all bins whose frequency falls in
// [lowHz, highHz).
func (ba *BandAnalyzer) BandEnergy(magnitude []float64, lowHz, highHz float64) float64 {
	energy := 0.0
	for i, mag := range magnitude {
		freq := ba.BinFrequency(i)
		if freq >= lowHz && freq < highHz {
			energy += mag
		}
	}
	return energy
}

// BandEnergies sums magnitude energy into len(edges)-1 contiguous bands.
// Band k covers [edges[k], edges[k+1]).
func (ba *BandAnalyzer) BandEnergies(magnitude []float64, edges []float64) []float64 {
	if len(edges) < 2 {
		return []float64{}
	}

	energies := make([]float64, len(edges)-1)
	for i, mag := range magnitude {
		freq := ba.BinFrequency(i)
		for k := range energies {
			if freq >= edges[k] && freq < edges[k+1] {
				energies[k] += mag
				break
			}
		}
	}

	return energies
}

// Centroid computes the magnitude-weighted mean frequency over the bins in
// [lowHz, highHz]. Returns 0 when the band holds no energy.
func (ba *BandAnalyzer) Centroid(magnitude []float64, lowHz, highHz float64) float64 {
	numerator := 0.0
	denominator := 0.0

	for i, mag := range magnitude {
		freq := ba.BinFrequency(i)
		if freq < lowHz || freq > highHz {
			continue
		}
		numerator += freq * mag
		denominator += mag
	}

	if denominator == 0 {
		return 0
	}

	return numerator / denominator
}
