package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hediet/typed-json-rpc/internal/config"
	"github.com/hediet/typed-json-rpc/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "demo",
	Short: "Drive the calculate/progress scenario over typed-json-rpc end to end",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the calculator scenario: success, progress, and a domain error",
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, err := config.Load(configPath)
		if err != nil {
			return err
		}
		level := logLevel
		if level == "" {
			level = settings.Log.Level
		}
		logging.SetupLogger(level, os.Stderr)
		fmt.Printf("running %s\n", settings.Server.Name)
		return runScenario(cmd.Context(), logging.GetLogger("demo"))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the demo's version",
	Run: func(*cobra.Command, []string) {
		fmt.Println("typed-json-rpc demo v0.1.0")
	},
}

func newRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.AddCommand(runCmd, versionCmd)
	return rootCmd
}
