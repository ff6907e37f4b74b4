// Package cmd wires the command line interface of listing-cleaner.
package cmd

import (
	"github.com/spf13/cobra"

	"listing-cleaner/config"
	"listing-cleaner/utils"
)

var (
	dataDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "listing-cleaner",
	Short: "Clean real-estate listing exports into one table",
	Long: `listing-cleaner reads the JSON exports of a listing scraper, normalizes
prices, areas and locations, encodes the free-text tag lists into one
boolean column per tag and writes a single clean table.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory with the JSON exports (overrides DATA_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads the configuration, applies the persistent flags and returns a
// logger writing to the command's output streams.
func setup(cmd *cobra.Command) (*config.Config, *utils.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	logger := utils.NewLoggerTo(cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger.SetDebug(cfg.Debug() || verbose)
	return cfg, logger, nil
}
