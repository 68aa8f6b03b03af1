package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&doCpuProfile, "cpu", false, "Enable CPU profiling")
	rootCmd.PersistentFlags().BoolVar(&doMemoryProfile, "memory", false, "Enable memory profiling")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Scenario config file path")
}

var rootCmd = &cobra.Command{
	Use:   strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0])),
	Short: "Exercise lum allocators, ownership handles and managers",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
		if doCpuProfile {
			cpuProfile = profile.Start(profile.CPUProfile)
		}
		if doMemoryProfile {
			memoryProfile = profile.Start(profile.MemProfile)
		}
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if cpuProfile != nil {
			cpuProfile.Stop()
		}
		if memoryProfile != nil {
			memoryProfile.Stop()
		}
	},
}
var verbose bool
var doCpuProfile bool
var cpuProfile interface{ Stop() }
var doMemoryProfile bool
var memoryProfile interface{ Stop() }
var configPath string

// loadConfig reads --config if given, otherwise returns the defaults.
func loadConfig() (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(configPath)
}
