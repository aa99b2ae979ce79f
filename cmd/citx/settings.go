package main

import (
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	"github.com/matsen/citextract/internal/config"
	"github.com/matsen/citextract/internal/logutil"
	"github.com/matsen/citextract/internal/section"
	"github.com/matsen/citextract/internal/tagger"
	"github.com/spf13/cobra"
)

// settings are the effective values for one invocation.
// Precedence: flag, then environment, then global config, then default.
type settings struct {
	ModelPath string
	Device    tagger.Device
	Threshold int
	Workers   int
	LogLevel  slog.Level
}

// flagString returns the value of a flag the user set explicitly.
func flagString(cmd *cobra.Command, name string) (string, bool) {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return "", false
	}
	return f.Value.String(), true
}

// resolve picks the first non-empty value in precedence order.
func resolve(cmd *cobra.Command, flag, envKey, configValue, def string) string {
	if v, ok := flagString(cmd, flag); ok {
		return v
	}
	if v := config.GetConfigValue(envKey, configValue); v != "" {
		return v
	}
	return def
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	global, err := config.LoadGlobalConfig()
	if err != nil {
		return settings{}, err
	}

	var s settings
	s.ModelPath = config.ExpandPath(resolve(cmd, "model", config.EnvModel, global.ModelPath, ""))

	s.Device, err = tagger.ParseDevice(resolve(cmd, "device", config.EnvDevice, global.Device, ""))
	if err != nil {
		return settings{}, err
	}

	s.LogLevel, err = logutil.ParseLevel(resolve(cmd, "log-level", config.EnvLogLevel, global.LogLevel, ""))
	if err != nil {
		return settings{}, err
	}

	threshold := ""
	if global.SectionThreshold != nil {
		threshold = strconv.Itoa(*global.SectionThreshold)
	}
	s.Threshold, err = strconv.Atoi(resolve(cmd, "threshold", config.EnvThreshold, threshold, strconv.Itoa(section.DefaultThreshold)))
	if err != nil {
		return settings{}, fmt.Errorf("invalid section threshold: %w", err)
	}

	workers := ""
	if global.Workers > 0 {
		workers = strconv.Itoa(global.Workers)
	}
	w := resolve(cmd, "workers", config.EnvWorkers, workers, strconv.Itoa(runtime.NumCPU()))
	s.Workers, err = strconv.Atoi(w)
	if err != nil || s.Workers < 1 {
		return settings{}, fmt.Errorf("invalid worker count %q: must be a positive integer", w)
	}

	return s, nil
}
