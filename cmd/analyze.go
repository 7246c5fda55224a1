package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stemforge/stemscan/algorithms/temporal"
	"github.com/stemforge/stemscan/decode"
	"github.com/stemforge/stemscan/extract"
)

var (
	analyzeBPM       float64
	analyzeStem      string
	analyzeOnsets    string
	analyzeOnsetFile string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [stem.wav]",
	Short: "Analyze one stem and print extracted sample candidates as JSON",
	Long: `Decode a WAV stem, run the full extraction pipeline (energy onset,
hit classification, loop and fill discovery, pitch annotation) and print
the resulting StemAnalysis as indented JSON.

Onsets are supplied either inline (--onsets "0.5,1.0,1.5") or as a JSON
file holding an array of seconds (--onset-file onsets.json). Without
either flag the built-in spectral-flux detector supplies them, and
without --bpm the tempo is estimated from the onset spacing.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Float64Var(&analyzeBPM, "bpm", 0,
		"tempo from the external tracker; 0 estimates it from the onsets")
	analyzeCmd.Flags().StringVar(&analyzeStem, "stem", string(extract.StemDrums),
		"stem type: drums, bass, vocals or other")
	analyzeCmd.Flags().StringVar(&analyzeOnsets, "onsets", "",
		"comma-separated onset times in seconds")
	analyzeCmd.Flags().StringVar(&analyzeOnsetFile, "onset-file", "",
		"JSON file holding an array of onset times in seconds")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	buf, err := decode.WAVFile(args[0])
	if err != nil {
		return err
	}

	onsets, err := parseOnsets()
	if err != nil {
		return err
	}
	if len(onsets) == 0 {
		onsets = temporal.NewOnsetDetector().Detect(buf)
	}

	bpm := analyzeBPM
	if bpm <= 0 {
		bpm = temporal.NewTempoEstimator().EstimateFromOnsets(onsets)
		if bpm <= 0 {
			return fmt.Errorf("could not estimate a tempo; pass --bpm")
		}
	}

	config, err := loadAnalyzerConfig()
	if err != nil {
		return err
	}

	analyzer := extract.NewAnalyzer(config)
	analysis, err := analyzer.AnalyzeStem(buf, extract.StemType(analyzeStem), args[0], onsets, bpm)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))
	return nil
}

// loadAnalyzerConfig overlays the viper config file (if any) onto the
// default pipeline configuration, matching keys by JSON tag
func loadAnalyzerConfig() (*extract.AnalyzerConfig, error) {
	config := extract.DefaultAnalyzerConfig()

	if viper.ConfigFileUsed() == "" {
		return config, nil
	}

	err := viper.Unmarshal(config, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	})
	if err != nil {
		return nil, fmt.Errorf("loading analyzer config: %w", err)
	}

	return config, nil
}

// parseOnsets reads onset times from --onsets or --onset-file
func parseOnsets() ([]float64, error) {
	if analyzeOnsetFile != "" {
		data, err := os.ReadFile(analyzeOnsetFile)
		if err != nil {
			return nil, fmt.Errorf("reading onset file: %w", err)
		}

		var onsets []float64
		if err := json.Unmarshal(data, &onsets); err != nil {
			return nil, fmt.Errorf("parsing onset file: %w", err)
		}
		return onsets, nil
	}

	if analyzeOnsets == "" {
		return []float64{}, nil
	}

	parts := strings.Split(analyzeOnsets, ",")
	onsets := make([]float64, 0, len(parts))
	for _, p := range parts {
		t, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing onset %q: %w", p, err)
		}
		onsets = append(onsets, t)
	}

	return onsets, nil
}
