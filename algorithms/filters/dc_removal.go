// Package filters provides the time-domain pre-processing applied before
// spectral analysis.
package filters

// DCRemoval is a one-pole DC blocking filter:
//
//	y[n] = x[n] - x[n-1] + R * y[n-1]
//
// Reference: Julius O. Smith III, "Introduction to Digital Filters with
// Audio Applications", https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
type DCRemoval struct {
	pole float64 // R, 0 < R < 1

	x1 float64
	y1 float64
}

// NewDCRemoval creates a DC blocker with R = 0.995, a cutoff of roughly 8 Hz
// at 44.1 kHz
func NewDCRemoval() *DCRemoval {
	return &DCRemoval{pole: 0.995}
}

// Process filters a single sample
func (dc *DCRemoval) Process(input float64) float64 {
	output := input - dc.x1 + dc.pole*dc.y1
	dc.x1 = input
	dc.y1 = output
	return output
}

// ProcessBuffer filters a whole buffer of samples
func (dc *DCRemoval) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = dc.Process(sample)
	}
	return output
}

// Reset clears the filter state. Call between discontinuous segments.
func (dc *DCRemoval) Reset() {
	dc.x1 = 0.0
	dc.y1 = 0.0
}

// RemoveDC filters interleaved multi-channel audio with an independent
// filter state per channel
func RemoveDC(pcm []float64, channels int) []float64 {
	if channels <= 1 {
		return NewDCRemoval().ProcessBuffer(pcm)
	}

	output := make([]float64, len(pcm))
	for c := 0; c < channels; c++ {
		dc := NewDCRemoval()
		for i := c; i < len(pcm); i += channels {
			output[i] = dc.Process(pcm[i])
		}
	}

	return output
}
