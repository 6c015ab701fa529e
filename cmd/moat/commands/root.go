package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "moat",
	Short: "MOAT - moat / AI-risk 밸류에이션 엔진",
	Long: `MOAT Unified CLI

Sector-level moat and AI-disruption scoring, justified P/E valuation
and PM override management.

Usage:
  go run ./cmd/moat [command]

Examples:
  go run ./cmd/moat api
  go run ./cmd/moat sectors
  go run ./cmd/moat value MSFT --sector "Information Technology" --beta 1.1
  go run ./cmd/moat overrides set-sector Energy --sc 4
  go run ./cmd/moat calibration check config/calibration.yaml`,
	SilenceUsage:      true,
	PersistentPreRunE: applyGlobalFlags,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file to load before .env (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (LOG_LEVEL=debug)")
}

// applyGlobalFlags exports the global flags as environment for config.Load
func applyGlobalFlags(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return fmt.Errorf("load env file %s: %w", configFile, err)
		}
	}
	if env != "" {
		if err := os.Setenv("ENV", env); err != nil {
			return err
		}
	}
	if verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			return err
		}
	}
	return nil
}
