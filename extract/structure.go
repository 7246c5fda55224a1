package extract

import (
	"sort"

	"github.com/stemforge/stemscan/algorithms/stats"
)

// StructureParams contains parameters for self-similarity and novelty
// analysis
type StructureParams struct {
	PatternLengths   []int   `json:"pattern_lengths"`   // Candidate lengths, checked largest-first
	MatchThreshold   float64 `json:"match_threshold"`   // Min block similarity to extend a repeat
	NoveltyKernel    int     `json:"novelty_kernel"`    // Segments compared on each side
	NoveltyThreshold float64 `json:"novelty_threshold"` // Min value for a peak
	PeakMinDistance  int     `json:"peak_min_distance"` // Min segment spacing between peaks
	MinRepeatCount   int     `json:"min_repeat_count"`  // Runs shorter than this are discarded
}

// DefaultStructureParams returns the default structure analysis parameters
func DefaultStructureParams() StructureParams {
	return StructureParams{
		PatternLengths:   []int{4, 2, 1},
		MatchThreshold:   0.85,
		NoveltyKernel:    4,
		NoveltyThreshold: 0.5,
		PeakMinDistance:  4,
		MinRepeatCount:   2,
	}
}

// StructureAnalyzer discovers repeating patterns (loop candidates) and
// novelty peaks (fill/transition candidates) in a beat-aligned feature
// series
type StructureAnalyzer struct {
	params StructureParams
}

// NewStructureAnalyzer creates an analyzer with default parameters
func NewStructureAnalyzer() *StructureAnalyzer {
	return NewStructureAnalyzerWithParams(DefaultStructureParams())
}

// NewStructureAnalyzerWithParams creates an analyzer with custom parameters
func NewStructureAnalyzerWithParams(params StructureParams) *StructureAnalyzer {
	return &StructureAnalyzer{params: params}
}

// SimilarityMatrix computes the symmetric matrix of cosine similarities
// between every pair of feature vectors. Zero-norm vectors compare as 0
// against everything, including themselves.
func (sa *StructureAnalyzer) SimilarityMatrix(series [][]float64) [][]float64 {
	n := len(series)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i := range n {
		for j := i; j < n; j++ {
			sim := stats.CosineSimilarity(series[i], series[j])
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}

	return matrix
}

// FindRepeatingPatterns scans the similarity matrix for runs of consecutive
// blocks that match the block at the run's start. Candidate lengths are
// checked largest-first over non-overlapping start offsets; a run grows
// while the next block's average similarity to the first stays at or above
// the match threshold. Results are sorted by repeat count descending (ties:
// higher average similarity, then earlier start), so the first entry is the
// track's primary loop.
func (sa *StructureAnalyzer) FindRepeatingPatterns(matrix [][]float64) []DetectedPattern {
	n := len(matrix)
	patterns := make([]DetectedPattern, 0)

	for _, length := range sa.params.PatternLengths {
		if length <= 0 || length > n {
			continue
		}

		for start := 0; start+length <= n; start += length {
			repeatCount := 1
			similaritySum := 0.0

			for next := start + length; next+length <= n; next += length {
				sim := sa.blockSimilarity(matrix, start, next, length)
				if sim < sa.params.MatchThreshold {
					break
				}
				repeatCount++
				similaritySum += sim
			}

			if repeatCount >= sa.params.MinRepeatCount {
				patterns = append(patterns, DetectedPattern{
					StartSegment:      start,
					LengthSegments:    length,
					RepeatCount:       repeatCount,
					AverageSimilarity: similaritySum / float64(repeatCount-1),
				})
			}
		}
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].RepeatCount != patterns[j].RepeatCount {
			return patterns[i].RepeatCount > patterns[j].RepeatCount
		}
		if patterns[i].AverageSimilarity != patterns[j].AverageSimilarity {
			return patterns[i].AverageSimilarity > patterns[j].AverageSimilarity
		}
		return patterns[i].StartSegment < patterns[j].StartSegment
	})

	return patterns
}

// blockSimilarity averages the pairwise similarities between two
// length-segment blocks
func (sa *StructureAnalyzer) blockSimilarity(matrix [][]float64, a, b, length int) float64 {
	sum := 0.0
	for k := range length {
		sum += matrix[a+k][b+k]
	}
	return sum / float64(length)
}

// NoveltyCurve computes one scalar per segment measuring how much segment i
// differs from its neighborhood: the mean Euclidean distance to the
// NoveltyKernel segments on each side. Edge segments without a full
// neighborhood are left at 0.
func (sa *StructureAnalyzer) NoveltyCurve(series [][]float64) []float64 {
	n := len(series)
	kernel := sa.params.NoveltyKernel
	novelty := make([]float64, n)

	for i := kernel; i < n-kernel; i++ {
		sum := 0.0
		for k := 1; k <= kernel; k++ {
			sum += stats.EuclideanDistance(series[i], series[i-k])
			sum += stats.EuclideanDistance(series[i], series[i+k])
		}
		novelty[i] = sum / float64(2*kernel)
	}

	return novelty
}

// FindNoveltyPeaks picks local maxima of the novelty curve that exceed the
// novelty threshold, enforcing PeakMinDistance between accepted peaks. Of
// two qualifying peaks closer than the minimum distance, the higher one
// survives.
func (sa *StructureAnalyzer) FindNoveltyPeaks(novelty []float64) []NoveltyPeak {
	peaks := make([]NoveltyPeak, 0)

	for i := 1; i < len(novelty)-1; i++ {
		if novelty[i] <= novelty[i-1] || novelty[i] <= novelty[i+1] {
			continue
		}
		if novelty[i] <= sa.params.NoveltyThreshold {
			continue
		}

		peak := NoveltyPeak{Segment: i, Value: novelty[i]}

		if len(peaks) > 0 {
			last := peaks[len(peaks)-1]
			if i-last.Segment < sa.params.PeakMinDistance {
				if peak.Value > last.Value {
					peaks[len(peaks)-1] = peak
				}
				continue
			}
		}

		peaks = append(peaks, peak)
	}

	return peaks
}
