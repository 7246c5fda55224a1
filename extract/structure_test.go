package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// basisVector returns a unit vector with a single nonzero component
func basisVector(dims, idx int) []float64 {
	v := make([]float64, dims)
	v[idx] = 1.0
	return v
}

// repeatedBlockSeries builds a feature series of `repeats` copies of a
// blockLen-segment block of distinct basis vectors
func repeatedBlockSeries(blockLen, repeats int) [][]float64 {
	series := make([][]float64, 0, blockLen*repeats)
	for r := 0; r < repeats; r++ {
		for i := 0; i < blockLen; i++ {
			series = append(series, basisVector(blockLen, i))
		}
	}
	return series
}

func TestSimilarityMatrixProperties(t *testing.T) {
	analyzer := NewStructureAnalyzer()
	series := repeatedBlockSeries(4, 2)

	matrix := analyzer.SimilarityMatrix(series)
	require.Len(t, matrix, 8)

	for i := range matrix {
		assert.InDelta(t, 1.0, matrix[i][i], 1e-9, "diagonal")
		for j := range matrix {
			assert.InDelta(t, matrix[i][j], matrix[j][i], 1e-12, "symmetry at (%d,%d)", i, j)
		}
	}

	// Same basis vector one block apart, orthogonal within a block
	assert.InDelta(t, 1.0, matrix[0][4], 1e-9)
	assert.InDelta(t, 0.0, matrix[0][1], 1e-9)
}

func TestSimilarityMatrixZeroVector(t *testing.T) {
	analyzer := NewStructureAnalyzer()
	series := [][]float64{basisVector(4, 0), make([]float64, 4)}

	matrix := analyzer.SimilarityMatrix(series)
	assert.Zero(t, matrix[0][1])
	assert.Zero(t, matrix[1][1], "zero vector is not similar even to itself")
}

func TestFindRepeatingPatterns(t *testing.T) {
	analyzer := NewStructureAnalyzer()
	series := repeatedBlockSeries(4, 4) // 16 segments

	matrix := analyzer.SimilarityMatrix(series)
	patterns := analyzer.FindRepeatingPatterns(matrix)
	require.NotEmpty(t, patterns)

	primary := patterns[0]
	assert.Equal(t, 0, primary.StartSegment)
	assert.Equal(t, 4, primary.LengthSegments)
	assert.Equal(t, 4, primary.RepeatCount)
	assert.InDelta(t, 1.0, primary.AverageSimilarity, 1e-9)
	assert.True(t, primary.IsMainLoop())

	// Later starts see fewer remaining repeats
	for i := 1; i < len(patterns); i++ {
		assert.LessOrEqual(t, patterns[i].RepeatCount, patterns[i-1].RepeatCount, "sorted by repeat count")
	}
}

func TestFindRepeatingPatternsNoStructure(t *testing.T) {
	analyzer := NewStructureAnalyzer()

	// 8 mutually orthogonal segments: nothing repeats
	series := make([][]float64, 8)
	for i := range series {
		series[i] = basisVector(8, i)
	}

	patterns := analyzer.FindRepeatingPatterns(analyzer.SimilarityMatrix(series))
	assert.Empty(t, patterns)
}

func TestNoveltyCurveEdgesAndTransition(t *testing.T) {
	analyzer := NewStructureAnalyzer()

	// Uniform first half, uniform second half: novelty concentrates at
	// the boundary
	series := make([][]float64, 16)
	for i := range series {
		series[i] = basisVector(2, i/8)
	}

	novelty := analyzer.NoveltyCurve(series)
	require.Len(t, novelty, 16)

	kernel := DefaultStructureParams().NoveltyKernel
	for i := 0; i < kernel; i++ {
		assert.Zero(t, novelty[i], "leading edge %d", i)
		assert.Zero(t, novelty[len(novelty)-1-i], "trailing edge %d", i)
	}

	maxIdx := 0
	for i, v := range novelty {
		if v > novelty[maxIdx] {
			maxIdx = i
		}
	}
	assert.Contains(t, []int{7, 8}, maxIdx, "novelty peaks at the section boundary")
}

func TestFindNoveltyPeaks(t *testing.T) {
	analyzer := NewStructureAnalyzer()

	curve := []float64{0, 0, 0.6, 0, 0, 0.7, 0, 0, 0, 0, 0.9, 0, 0}
	peaks := analyzer.FindNoveltyPeaks(curve)
	require.Len(t, peaks, 2)

	// 0.6 at segment 2 and 0.7 at segment 5 are within the minimum
	// distance; the higher one survives
	assert.Equal(t, 5, peaks[0].Segment)
	assert.InDelta(t, 0.7, peaks[0].Value, 1e-9)
	assert.Equal(t, 10, peaks[1].Segment)
	assert.InDelta(t, 0.9, peaks[1].Value, 1e-9)
}

func TestFindNoveltyPeaksThreshold(t *testing.T) {
	analyzer := NewStructureAnalyzer()

	curve := []float64{0, 0.4, 0, 0, 0, 0, 0.51, 0}
	peaks := analyzer.FindNoveltyPeaks(curve)
	require.Len(t, peaks, 1, "sub-threshold local maxima are ignored")
	assert.Equal(t, 6, peaks[0].Segment)
}
