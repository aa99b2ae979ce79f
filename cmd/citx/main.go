// Package main provides the citx CLI entry point.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/matsen/citextract/internal/logutil"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// current holds the settings resolved for the running command.
var current settings

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWithError(ExitError, "%v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "citx",
	Short: "Extract citations from the reference sections of scholarly documents",
	Long: `citx finds the reference section of a document and splits it into
individual citation strings using a character-level BiLSTM tagger.

Input is plain text or PDF. Results can be saved to a .citx store, kept as
git-versionable JSONL with an ephemeral SQLite database for search. All
commands output JSON by default for easy integration with other tools.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default warn)")
	rootCmd.PersistentFlags().String("model", "", "Path to model weights (.pth or .safetensors)")
	rootCmd.PersistentFlags().String("device", "", "Inference device (auto, cpu)")
	rootCmd.Version = Version
}

// setup loads .env, resolves settings and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	s, err := loadSettings(cmd)
	if err != nil {
		// config must stay usable to repair a bad value.
		if cmd != configCmd {
			exitWithError(ExitConfigError, "%v", err)
		}
		s.LogLevel = slog.LevelWarn
	}
	current = s

	slog.SetDefault(logutil.NewLogger(os.Stderr, s.LogLevel))
	slog.Debug("settings resolved", "model", s.ModelPath, "device", s.Device,
		"threshold", s.Threshold, "workers", s.Workers)
	return nil
}
