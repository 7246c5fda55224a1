package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stemforge/stemscan/logging"
)

var (
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stemscan",
	Short: "Sample-region analysis for separated stems",
	Long: `stemscan analyzes a decoded audio stem (drums, bass, vocals or other)
and produces candidate sample regions - loops, one-shot hits and fills -
annotated with drum type, fundamental pitch and structural novelty.

Onset times and tempo come from an external beat tracker; stemscan consumes
them together with the decoded audio and does the musical analysis.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default searches ./stemscan.yaml and $HOME/.config/stemscan)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in the config file and environment variables if set
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.config/stemscan")
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("stemscan")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("STEMSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}

	if viper.GetBool("verbose") {
		logging.GetGlobalLogger().SetLevel(logging.DebugLevel)
	}
}
