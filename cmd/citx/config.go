package main

import (
	"github.com/matsen/citextract/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set global configuration values",
	Long: `Get or set values in the global config file
($XDG_CONFIG_HOME/citx/config.yml).

Usage:
  citx config                              # Show all config
  citx config model_path                   # Get specific value
  citx config model_path ~/models/ref.pth  # Set value

Keys:
  model_path         Path to the model weights (.pth or .safetensors)
  device             Inference device (auto, cpu)
  section_threshold  Minimum characters after a reference heading (default 100)
  workers            Concurrent documents for batch (default: number of CPUs)
  log_level          debug, info, warn, error (default warn)

Environment variables CITX_MODEL, CITX_DEVICE, CITX_SECTION_THRESHOLD,
CITX_WORKERS and CITX_LOG_LEVEL override the file; command-line flags
override both.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the response for config get commands.
type ConfigResponse struct {
	Path   string            `json:"path"`
	Values map[string]string `json:"values"`
}

// ConfigValue is the response for a single key.
type ConfigValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	switch len(args) {
	case 0:
		values := make(map[string]string, len(config.ConfigKeys))
		for _, key := range config.ConfigKeys {
			values[key], _ = cfg.Get(key)
		}
		if humanOutput {
			outputHuman("# %s\n", config.GlobalConfigPath())
			for _, key := range config.ConfigKeys {
				v := values[key]
				if v == "" {
					v = "(not set)"
				}
				outputHuman("%-18s %s\n", key+":", v)
			}
			return nil
		}
		outputJSON(ConfigResponse{Path: config.GlobalConfigPath(), Values: values})

	case 1:
		value, err := cfg.Get(args[0])
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			outputHuman("%s\n", value)
			return nil
		}
		outputJSON(ConfigValue{Key: args[0], Value: value})

	case 2:
		updated := *cfg
		if err := updated.Set(args[0], args[1]); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if err := config.SaveGlobalConfig(&updated); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		value, _ := updated.Get(args[0])
		if humanOutput {
			outputHuman("Set %s = %s\n", args[0], value)
			return nil
		}
		outputJSON(UpdateResponse{Status: "updated", Key: args[0], Value: value})
	}
	return nil
}
