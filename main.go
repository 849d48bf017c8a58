// Command algolab lists, downloads and runs algorithms from a remote
// algorithms service, falling back to local execution when offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wagnerlima/algolab/internal/config"
	"github.com/wagnerlima/algolab/internal/logging"
)

var version = "0.1.0"

var (
	// Global flags
	configPath string
	dataDir    string
	baseURL    string
	offline    bool
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "algolab",
	Short: "Browse, download and run algorithms",
	Long: `algolab talks to an algorithms service. Algorithms can be listed,
inspected and run remotely, or downloaded so their Go scripts run locally
when the service cannot be reached.

Configuration is read from --config (YAML), then ALGOLAB_* environment
variables, then flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if dataDir != "" {
			c.DataDir = dataDir
		}
		if baseURL != "" {
			c.BaseURL = baseURL
		}
		if offline {
			c.Offline = true
		}
		if verbose {
			c.LogLevel = "debug"
		}
		if err := c.Validate(); err != nil {
			return err
		}

		logger, err = logging.New(c.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "algolab.yaml", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for the local database and scripts")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Root URL of the algorithms service")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Never contact the algorithms service")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(listCmd, detailsCmd, downloadCmd, deleteCmd, runCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
