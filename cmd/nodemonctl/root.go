package main

import (
	"os"

	"nodemonitor/pkg/config"
	"nodemonitor/pkg/logger"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nodemonctl",
		Short: "Operator tools for the node monitor",
		Long: `nodemonctl inspects Nosana hosts and the node monitor database
without going through the HTTP API.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $CONFIG_PATH or config/config.yaml)")

	root.AddCommand(newBreakdownCmd())
	root.AddCommand(newStatsCmd())
	return root
}

// loadConfig reads the config file, falling back to defaults when none exists
func loadConfig() *config.Config {
	path := cfgFile
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config/config.yaml"
	}
	if err := logger.Init(config.LoggerConfig{Level: "warn", Output: "console"}); err != nil {
		logger.Warnf("failed to init logger: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Warnf("using default config, %s: %v", path, err)
		return config.Default()
	}
	return cfg
}
